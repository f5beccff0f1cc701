package notification

import (
	"fmt"
	"strings"

	"classbook/models"
)

const timeLayout = "Mon Jan 2, 2006 at 15:04 MST"

func className(sc *models.Schedule) string {
	if sc == nil {
		return "your class"
	}
	if sc.ClassName != "" {
		return sc.ClassName
	}
	return "your class"
}

func when(sc *models.Schedule) string {
	if sc == nil || sc.StartTime.IsZero() {
		return "the scheduled time"
	}
	return sc.StartTime.UTC().Format(timeLayout)
}

func bookingMessage(b *models.Booking, sc *models.Schedule) models.Message {
	data := map[string]string{"bookingId": b.ID}
	if sc != nil {
		data["scheduleId"] = sc.ID
	}
	return models.Message{
		UserID: b.UserID,
		Email:  b.CustomerEmail,
		Phone:  b.CustomerPhone,
		Data:   data,
	}
}

func greeting(name string) string {
	if name == "" {
		return "Hi"
	}
	return "Hi " + name
}

func renderConfirmed(b *models.Booking, sc *models.Schedule) models.Message {
	msg := bookingMessage(b, sc)
	msg.Title = "Booking confirmed"
	msg.Body = fmt.Sprintf("%s, you're booked for %s on %s.", greeting(b.CustomerName), className(sc), when(sc))
	return msg
}

func renderCanceled(b *models.Booking, sc *models.Schedule) models.Message {
	msg := bookingMessage(b, sc)
	msg.Title = "Booking canceled"
	body := fmt.Sprintf("%s, your booking for %s on %s has been canceled.", greeting(b.CustomerName), className(sc), when(sc))
	switch {
	case b.Status == models.BookingRefunded:
		body += fmt.Sprintf(" A refund of %s is on its way.", formatAmount(b.AmountCents, b.Currency))
	case b.CreditsUsed > 0:
		body += " Your credit has been returned to your account."
	}
	msg.Body = body
	return msg
}

func renderRescheduled(b *models.Booking, from, to *models.Schedule) models.Message {
	msg := bookingMessage(b, to)
	msg.Title = "Booking rescheduled"
	msg.Body = fmt.Sprintf("%s, your booking for %s moved from %s to %s.", greeting(b.CustomerName), className(to), when(from), when(to))
	if from != nil {
		msg.Data["oldScheduleId"] = from.ID
	}
	return msg
}

func renderWaitlistOpen(entry *models.WaitlistEntry, sc *models.Schedule) models.Message {
	msg := models.Message{
		UserID: entry.UserID,
		Email:  entry.Email,
		Title:  "A spot just opened up",
		Body:   fmt.Sprintf("%s, a spot opened in %s on %s. Book now before it's gone.", greeting(entry.Name), className(sc), when(sc)),
		Data:   map[string]string{},
	}
	if sc != nil {
		msg.Data["scheduleId"] = sc.ID
	}
	return msg
}

func renderReminder(b *models.Booking, sc *models.Schedule) models.Message {
	msg := bookingMessage(b, sc)
	msg.Title = "Class reminder"
	msg.Body = fmt.Sprintf("%s, see you at %s on %s.", greeting(b.CustomerName), className(sc), when(sc))
	return msg
}

func formatAmount(cents int64, currency string) string {
	return fmt.Sprintf("%d.%02d %s", cents/100, cents%100, strings.ToUpper(currency))
}
