package config

import "laganbus/internal/domain"

// DefaultBusServices is the static price reference table. The engine takes
// this as an explicit argument at construction; nothing reads it ambiently.
func DefaultBusServices() domain.ServiceTable {
	return domain.ServiceTable{
		"Sakeer Express": {Name: "Sakeer Express", Price: 2700, DefaultTime: "9:00 PM"},
		"RS Express":     {Name: "RS Express", Price: 2900, DefaultTime: "9:00 PM"},
		"Myown Express":  {Name: "Myown Express", Price: 2700, DefaultTime: "8:45 PM"},
		"Al Ahla":        {Name: "Al Ahla", Price: 2800, DefaultTime: "8:30 PM"},
		"Al Rashith":     {Name: "Al Rashith", Price: 2700, DefaultTime: "8:00 PM"},
		"Star Travels":   {Name: "Star Travels", Price: 1600, DefaultTime: "9:30 PM"},
		"Lloyds Travels": {Name: "Lloyds Travels", Price: 2700, DefaultTime: "9:00 PM"},
		"Super Line":     {Name: "Super Line", Price: 2800, DefaultTime: "9:00 PM"},
		"RN Express":     {Name: "RN Express", Price: 2500, DefaultTime: "8:30 PM"},
		"Anaaf Travels":  {Name: "Anaaf Travels", Price: 2700, DefaultTime: "9:00 PM"},
	}
}

// Cities served by the fleet; used by validation surfaces.
func Cities() []string {
	return []string{
		"Sammanthurai", "Nintavur", "Kalmunai", "Maruthamunai",
		"Batticaloa", "Polonaruwa", "Kattunayaka Airport", "Akkaraipattu",
		"Colombo", "Orugudwaththa", "Wellampitiya", "Kolonnawa",
		"Rajagiriya", "Mardana", "Kolluppitiya", "Wellwaththa", "Dehiwala",
	}
}
