package cloud

// Client groups the backend services the agent uses.
type Client interface {
	Auth() AuthService
	Videos() VideoService
	Shorts() ShortService
}
