package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendWelcome(toEmail, name string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	frontendURL string // used to build the "start chatting" link
}

func NewEmailService(host string, port int, username, password, senderEmail, frontendURL string) IEmailService {
	return &emailService{
		dialer:      gomail.NewDialer(host, port, username, password),
		senderEmail: senderEmail,
		frontendURL: frontendURL,
	}
}

func (s *emailService) SendWelcome(toEmail, name string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Welcome to your career counselor")
	m.SetBody("text/html", WelcomeBody(name, s.frontendURL))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send welcome mail to %s: %w", toEmail, err)
	}
	return nil
}

// WelcomeBody renders the HTML greeting. name may be empty.
func WelcomeBody(name, frontendURL string) string {
	greeting := "Hi there"
	if name != "" {
		greeting = "Hi " + name
	}

	return fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>%s, welcome aboard!</h2>
			<p>Your first chat is ready. Ask about career paths, courses or a learning roadmap and we'll take it from there.</p>
			<a href="%s/chat" style="background-color: #007BFF; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">Start chatting</a>
		</div>
	`, greeting, frontendURL)
}
