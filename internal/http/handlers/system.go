package handlers

import (
	"net/http"
	"sync"

	intconfig "laganbus/internal/config"
	"laganbus/internal/repositories"
	"laganbus/internal/services"

	"github.com/gin-gonic/gin"
)

// Deps bundles the long-lived collaborators handlers need. The engine keeps
// one reconciliation store and one in-flight guard per process, so handlers
// cannot construct services ad hoc the way stateless ones could.
type Deps struct {
	Env       intconfig.Env
	Bookings  services.BookingService
	Messaging services.Messaging
	Operators repositories.OperatorRepository
}

var (
	depsMu sync.RWMutex
	deps   Deps
)

// Configure stores the shared dependencies for the handler package. Called
// once during router construction.
func Configure(d Deps) {
	depsMu.Lock()
	defer depsMu.Unlock()
	deps = d
}

func getDeps() Deps {
	depsMu.RLock()
	defer depsMu.RUnlock()
	return deps
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "lagan bus engine running"})
}

// GetBusServices returns the price table the booking form renders.
func GetBusServices(c *gin.Context) {
	table := getDeps().Bookings.Pricing.Services
	out := make([]gin.H, 0, len(table))
	for name, svc := range table {
		out = append(out, gin.H{
			"name":        name,
			"price":       svc.Price,
			"defaultTime": svc.DefaultTime,
		})
	}
	c.JSON(http.StatusOK, gin.H{"services": out, "cities": intconfig.Cities()})
}
