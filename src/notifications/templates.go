package notifications

import (
	"fmt"
	"html"
	"strings"

	"farmstay/src/config"
	"farmstay/src/models"
	"farmstay/src/types"
)

// BookingView is the flattened, pre-formatted shape the template
// functions consume: ISO date strings and plain values, no gorm types.
type BookingView struct {
	BookingID  uint
	UnitName   string
	UnitSlug   string
	GuestName  string
	GuestEmail string
	GuestPhone string
	CheckIn    string
	CheckOut   string
	EventDate  string
	StartTime  string
	EndTime    string
	EventType  string
	Guests     uint
	Notes      string
}

func NewBookingView(b *models.Booking, u *models.Unit) BookingView {
	v := BookingView{
		BookingID:  b.ID,
		GuestName:  b.GuestName,
		GuestEmail: b.GuestEmail,
	}
	if u != nil {
		v.UnitName = u.Name
		v.UnitSlug = u.Slug
	}
	if b.GuestPhone != nil {
		v.GuestPhone = *b.GuestPhone
	}
	if b.CheckIn != nil {
		v.CheckIn = b.CheckIn.Format(config.DATE_PARSE_FORMAT)
	}
	if b.CheckOut != nil {
		v.CheckOut = b.CheckOut.Format(config.DATE_PARSE_FORMAT)
	}
	if b.EventDate != nil {
		v.EventDate = b.EventDate.Format(config.DATE_PARSE_FORMAT)
	}
	if b.StartTime != nil {
		v.StartTime = *b.StartTime
	}
	if b.EndTime != nil {
		v.EndTime = *b.EndTime
	}
	if b.EventType != nil {
		v.EventType = *b.EventType
	}
	if b.Guests != nil {
		v.Guests = *b.Guests
	}
	if b.Notes != nil {
		v.Notes = *b.Notes
	}
	return v
}

func (v BookingView) when() string {
	if v.EventDate != "" {
		if v.StartTime != "" && v.EndTime != "" {
			return fmt.Sprintf("%s %s-%s", v.EventDate, v.StartTime, v.EndTime)
		}
		return v.EventDate
	}
	return fmt.Sprintf("%s to %s", v.CheckIn, v.CheckOut)
}

// EmailContent renders the email for a message type. ok is false for
// message types that have no email rendering.
func EmailContent(msgType types.MessageType, v BookingView) (subject, html, text string, ok bool) {
	switch msgType {
	case types.MSG_GUEST_RECEIPT:
		subject = fmt.Sprintf("We received your booking request for %s", v.UnitName)
		text = strings.Join([]string{
			fmt.Sprintf("Hi %s,", v.GuestName),
			"",
			fmt.Sprintf("Thanks for your request to book %s (%s).", v.UnitName, v.when()),
			"We will confirm your booking as soon as possible.",
			"",
			fmt.Sprintf("Reference: #%d", v.BookingID),
		}, "\n")
	case types.MSG_GUEST_CONFIRMED:
		subject = fmt.Sprintf("Your booking for %s is confirmed", v.UnitName)
		text = strings.Join([]string{
			fmt.Sprintf("Hi %s,", v.GuestName),
			"",
			fmt.Sprintf("Your booking for %s (%s) is confirmed.", v.UnitName, v.when()),
			"We look forward to welcoming you!",
			"",
			fmt.Sprintf("Reference: #%d", v.BookingID),
		}, "\n")
	case types.MSG_OWNER_NEW_REQUEST:
		subject = fmt.Sprintf("New booking request: %s (%s)", v.UnitName, v.when())
		lines := []string{
			fmt.Sprintf("New booking request #%d for %s.", v.BookingID, v.UnitName),
			"",
			fmt.Sprintf("Guest: %s <%s>", v.GuestName, v.GuestEmail),
		}
		if v.GuestPhone != "" {
			lines = append(lines, fmt.Sprintf("Phone: %s", v.GuestPhone))
		}
		lines = append(lines, fmt.Sprintf("When: %s", v.when()))
		if v.Guests > 0 {
			lines = append(lines, fmt.Sprintf("Guests: %d", v.Guests))
		}
		if v.EventType != "" {
			lines = append(lines, fmt.Sprintf("Event type: %s", v.EventType))
		}
		if v.Notes != "" {
			lines = append(lines, "", fmt.Sprintf("Notes: %s", v.Notes))
		}
		text = strings.Join(lines, "\n")
	default:
		return "", "", "", false
	}
	html = textToHTML(text)
	return subject, html, text, true
}

// SMSContent renders the SMS body for a message type and audience. ok
// is false for combinations that have no SMS rendering.
func SMSContent(msgType types.MessageType, audience types.Audience, v BookingView) (string, bool) {
	switch {
	case msgType == types.MSG_OWNER_NEW_REQUEST && audience == types.AUDIENCE_OWNER:
		return fmt.Sprintf("New booking request #%d: %s, %s, %s", v.BookingID, v.UnitName, v.when(), v.GuestName), true
	case msgType == types.MSG_GUEST_RECEIPT && audience == types.AUDIENCE_GUEST:
		return fmt.Sprintf("We received your booking request for %s (%s). Reference #%d.", v.UnitName, v.when(), v.BookingID), true
	case msgType == types.MSG_GUEST_CONFIRMED && audience == types.AUDIENCE_GUEST:
		return fmt.Sprintf("Your booking for %s (%s) is confirmed. Reference #%d.", v.UnitName, v.when(), v.BookingID), true
	}
	return "", false
}

func textToHTML(text string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			b.WriteString("<br>")
			continue
		}
		b.WriteString(fmt.Sprintf("<p>%s</p>", html.EscapeString(line)))
	}
	b.WriteString("</body></html>")
	return b.String()
}
