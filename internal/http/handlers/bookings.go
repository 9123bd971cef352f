package handlers

import (
	"net/http"

	"laganbus/internal/domain"
	"laganbus/internal/http/middleware"
	"laganbus/internal/services"

	"github.com/gin-gonic/gin"
)

// SubmitBooking takes a customer booking request into the pending stage and
// returns the WhatsApp handoff link the customer uses to send the payment
// slip. A transport failure on the store write is not the end of the road:
// the reply still carries the link so the booking completes manually over
// WhatsApp.
func SubmitBooking(c *gin.Context) {
	var req services.SubmitInput
	if !BindJSONOrError(c, &req) {
		return
	}

	d := getDeps()
	svc := d.Bookings.WithRequest(middleware.GetRequestID(c))
	res, err := svc.Submit(c.Request.Context(), req)
	if err != nil {
		if domain.IsUnavailable(err) {
			c.JSON(http.StatusBadGateway, gin.H{
				"error":        err.Error(),
				"code":         "upstream_unavailable",
				"notice":       "booking store unreachable; send the WhatsApp message to complete the booking manually",
				"whatsappLink": d.Messaging.WhatsAppLink(res.Booking),
			})
			return
		}
		RespondDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"booking":      res.Booking,
		"notice":       res.Notice,
		"whatsappLink": d.Messaging.WhatsAppLink(res.Booking),
	})
}

// CheckBookingStatus resolves a customer's most recent booking by phone
// number straight from the remote store.
func CheckBookingStatus(c *gin.Context) {
	phone := c.Query("phone")
	svc := getDeps().Bookings.WithRequest(middleware.GetRequestID(c))

	b, err := svc.CheckStatus(c.Request.Context(), phone)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

// GetStatusTicketPDF renders the ticket for the booking a customer found
// through the status check. The record comes straight from the remote
// store, so the reconciliation store is bypassed.
func GetStatusTicketPDF(c *gin.Context) {
	rid := middleware.GetRequestID(c)
	svc := getDeps().Bookings.WithRequest(rid)

	b, err := svc.CheckStatus(c.Request.Context(), c.Query("phone"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	docs := services.DocsService{Store: svc.Store, RequestID: rid}
	pdfBytes, filename, err := docs.BuildTicket(b)
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", `inline; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}
