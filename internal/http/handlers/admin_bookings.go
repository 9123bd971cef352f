package handlers

import (
	"net/http"
	"strconv"

	"laganbus/internal/domain"
	"laganbus/internal/http/middleware"
	"laganbus/internal/services"
	"laganbus/internal/utils"

	"github.com/gin-gonic/gin"
)

// ListBookings returns one stage's collection, optionally narrowed by a
// search term (name/phone/id substring) and a journey date filter.
func ListBookings(c *gin.Context) {
	stage, ok := domain.ParseStage(c.DefaultQuery("stage", string(domain.StageActive)))
	if !ok {
		RespondDomainError(c, domain.ValidationError{Field: "stage", Msg: "must be pending, active or archive"})
		return
	}

	svc := getDeps().Bookings
	list := svc.Store.Filter(stage, c.Query("q"), c.Query("date"))
	c.JSON(http.StatusOK, gin.H{
		"stage":    stage,
		"count":    len(list),
		"bookings": list,
	})
}

// AddBooking is the operator path: the booking lands in the active stage
// already Confirmed.
func AddBooking(c *gin.Context) {
	var req services.SubmitInput
	if !BindJSONOrError(c, &req) {
		return
	}

	svc := getDeps().Bookings.WithRequest(middleware.GetRequestID(c))
	res, err := svc.Add(c.Request.Context(), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"booking": res.Booking, "notice": res.Notice})
}

// RefreshBookings rebuilds all three collections from the remote store.
// The stage query names what the operator is currently viewing so the
// response can tell them to switch when pending requests need attention.
func RefreshBookings(c *gin.Context) {
	current, ok := domain.ParseStage(c.DefaultQuery("stage", string(domain.StageActive)))
	if !ok {
		current = domain.StageActive
	}

	svc := getDeps().Bookings.WithRequest(middleware.GetRequestID(c))
	res, err := svc.Refresh(c.Request.Context(), current)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ApproveBooking moves a pending booking to active.
func ApproveBooking(c *gin.Context) {
	svc := getDeps().Bookings.WithRequest(middleware.GetRequestID(c))
	b, err := svc.Approve(c.Request.Context(), c.Param("id"), queryRow(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

// UpdateBooking persists field edits to a booking in any stage.
func UpdateBooking(c *gin.Context) {
	var req services.UpdateInput
	if !BindJSONOrError(c, &req) {
		return
	}
	req.ID = c.Param("id")

	svc := getDeps().Bookings.WithRequest(middleware.GetRequestID(c))
	b, err := svc.Update(c.Request.Context(), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

// DeleteBooking removes one booking from its stage. confirm=true is
// mandatory; the engine refuses to delete without it.
func DeleteBooking(c *gin.Context) {
	confirmed := c.Query("confirm") == "true"
	svc := getDeps().Bookings.WithRequest(middleware.GetRequestID(c))

	err := svc.Delete(c.Request.Context(), c.Param("id"), queryRow(c), c.Query("stage"), confirmed)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	utils.LogEvent(middleware.GetRequestID(c), "admin", "delete", "operator="+middleware.GetOperator(c))
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// ClearArchive wipes the archive stage remotely and locally.
func ClearArchive(c *gin.Context) {
	confirmed := c.Query("confirm") == "true"
	svc := getDeps().Bookings.WithRequest(middleware.GetRequestID(c))

	if err := svc.ClearArchive(c.Request.Context(), confirmed); err != nil {
		RespondDomainError(c, err)
		return
	}
	utils.LogEvent(middleware.GetRequestID(c), "admin", "clear_archive", "operator="+middleware.GetOperator(c))
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

// GetStats returns the dashboard counters.
func GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, getDeps().Bookings.Stats())
}

// GetBookingTicketPDF renders the A5 ticket for a booking (inline PDF).
func GetBookingTicketPDF(c *gin.Context) {
	d := getDeps()
	docs := services.DocsService{
		Store:     d.Bookings.Store,
		RequestID: middleware.GetRequestID(c),
	}

	pdfBytes, filename, err := docs.GenerateTicket(c.Param("id"), queryRow(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", `inline; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

// GetBookingMessages returns the outbound WhatsApp and SMS links for a
// booking so the admin UI can open them.
func GetBookingMessages(c *gin.Context) {
	d := getDeps()
	b, ok := findBooking(d.Bookings.Store, c.Param("id"), queryRow(c))
	if !ok {
		RespondDomainError(c, domain.NotFoundError{Resource: "booking"})
		return
	}

	payload := gin.H{"whatsappLink": d.Messaging.WhatsAppLink(b)}
	if sms, err := d.Messaging.SMSLink(b); err == nil {
		payload["smsLink"] = sms
	}
	c.JSON(http.StatusOK, payload)
}

func findBooking(store *services.ReconciliationStore, id string, row int) (domain.Booking, bool) {
	for _, stage := range []domain.Stage{domain.StagePending, domain.StageActive, domain.StageArchive} {
		if b, ok := store.Find(stage, id, row); ok {
			return b, true
		}
	}
	return domain.Booking{}, false
}

func queryRow(c *gin.Context) int {
	row, _ := strconv.Atoi(c.Query("row"))
	return row
}
