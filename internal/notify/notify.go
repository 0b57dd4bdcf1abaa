// Package notify defines the capabilities a value needs to take part in
// scheduled delivery, and the codec that stores them as opaque payloads.
//
// A target is anything that implements Notifiable. Targets with a stable
// identity also implement Identifiable so that their records can be looked
// up and cancelled by target. A payload implements Notification and may
// implement Interrupter to veto its own delivery at send time.
package notify

// Notifiable is an addressee that can receive notifications.
type Notifiable interface {
	// NotifiableType names the concrete target kind. It is stored with the
	// record and used to rehydrate the target.
	NotifiableType() string
	// RouteNotificationFor returns the address of the target on a delivery
	// channel, e.g. an email address or a telegram chat id.
	RouteNotificationFor(channel string) (string, bool)
}

// Identifiable is implemented by targets with a stable identity.
type Identifiable interface {
	NotifiableID() string
}

// Notification is a payload to be delivered to a target.
type Notification interface {
	// NotificationType is the discriminator used for filtered queries and
	// for rehydration.
	NotificationType() string
	// Channels lists the delivery channels in preference order.
	Channels() []string
	// Render produces the content delivered on a channel.
	Render(channel string, target Notifiable) (Content, error)
}

// Interrupter is implemented by notifications that may decide, right before
// dispatch, that they should not be delivered anymore.
type Interrupter interface {
	ShouldInterrupt(target Notifiable) bool
}

// Content is the rendered form of a notification for a single channel.
type Content struct {
	Subject string
	Body    string
}
