package email

import (
	"context"
	"fmt"
)

// Sender is the minimal interface handlers depend on, so tests can
// swap in a recorder.
type Sender interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// Notifier formats vendor lifecycle emails on top of a Sender.
type Notifier struct {
	sender Sender
}

func NewNotifier(sender Sender) *Notifier {
	return &Notifier{sender: sender}
}

// VendorApproved tells the vendor their application was accepted.
func (n *Notifier) VendorApproved(ctx context.Context, recipient, vendorName string) error {
	if n == nil || n.sender == nil {
		return nil
	}
	subject := "Your vendor application was approved"
	body := fmt.Sprintf(
		"Hi %s,\n\nGood news: your vendor application has been approved. "+
			"You can now be booked for events. Keep your availability calendar "+
			"up to date so organizers see accurate open dates.\n",
		vendorName,
	)
	return n.sender.Send(ctx, recipient, subject, body)
}

// VendorRejected tells the vendor their application was declined.
func (n *Notifier) VendorRejected(ctx context.Context, recipient, vendorName string) error {
	if n == nil || n.sender == nil {
		return nil
	}
	subject := "Update on your vendor application"
	body := fmt.Sprintf(
		"Hi %s,\n\nThank you for applying. After review we are unable to "+
			"approve your application at this time.\n",
		vendorName,
	)
	return n.sender.Send(ctx, recipient, subject, body)
}

// PlanConfirmed tells the vendor an event plan was confirmed.
func (n *Notifier) PlanConfirmed(ctx context.Context, recipient, vendorName, title, date string) error {
	if n == nil || n.sender == nil {
		return nil
	}
	subject := fmt.Sprintf("Booking confirmed: %s on %s", title, date)
	body := fmt.Sprintf(
		"Hi %s,\n\nYour booking %q on %s has been confirmed. "+
			"Please reply if anything about the date no longer works.\n",
		vendorName, title, date,
	)
	return n.sender.Send(ctx, recipient, subject, body)
}
