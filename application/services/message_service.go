package services

// MessageService supplies the banner shown on the storefront pages.
type MessageService interface {
	Message() string
	ImageURL() string
}

// WelcomeMessage is a fixed MessageService.
type WelcomeMessage struct {
	Text  string `json:"message" yaml:"message"`
	Image string `json:"imageUrl" yaml:"image_url"`
}

func (m *WelcomeMessage) Message() string  { return m.Text }
func (m *WelcomeMessage) ImageURL() string { return m.Image }
