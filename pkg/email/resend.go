package email

import (
	"bytes"
	"html/template"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/resendlabs/resend-go"
)

type EmailService struct {
	client       *resend.Client
	from         string
	fromName     string
	replyTo      string
	templatesDir string
	logger       *log.Logger
}

func NewEmailService() *EmailService {
	svc := &EmailService{
		client:       resend.NewClient(os.Getenv("RESEND_API_KEY")),
		from:         os.Getenv("EMAIL_FROM_ADDRESS"),
		fromName:     os.Getenv("EMAIL_FROM_NAME"),
		replyTo:      os.Getenv("EMAIL_REPLY_TO"),
		templatesDir: "pkg/email/templates",
	}

	logFile, err := os.OpenFile("logs/email.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Printf("Error opening log file: %v", err)
		svc.logger = log.New(os.Stdout, "EMAIL: ", log.LstdFlags)
		return svc
	}

	svc.logger = log.New(io.MultiWriter(os.Stdout, logFile), "EMAIL: ", log.LstdFlags)
	return svc
}

// SendMagicLinkEmail sends the passwordless sign-in link.
func (s *EmailService) SendMagicLinkEmail(email, link string) error {
	s.logger.Printf("Sending magic link email to: %s", email)

	templateData := map[string]interface{}{
		"MagicLink": link,
		"Email":     email,
		"Year":      time.Now().Year(),
	}

	html, err := s.parseTemplate("magic-link.html", templateData)
	if err != nil {
		s.logger.Printf("Error parsing magic link template for %s: %v", email, err)
		return err
	}

	params := &resend.SendEmailRequest{
		From:    s.fromName + " <" + s.from + ">",
		To:      []string{email},
		Subject: "Your sign-in link",
		Html:    html,
	}

	resp, err := s.client.Emails.Send(params)
	if err != nil {
		s.logger.Printf("Failed to send magic link email to %s: %v", email, err)
		return err
	}

	s.logger.Printf("Successfully sent magic link email to %s (ID: %s)", email, resp.Id)
	return nil
}

// SendFilmReadyEmail tells the customer their finished film is waiting in
// the account area.
func (s *EmailService) SendFilmReadyEmail(email, name string) error {
	s.logger.Printf("Sending film ready email to: %s", email)

	accountURL := os.Getenv("BASE_URL") + "/account"

	templateData := map[string]interface{}{
		"Name":       name,
		"AccountURL": accountURL,
		"Email":      email,
		"Year":       time.Now().Year(),
	}

	html, err := s.parseTemplate("video-ready.html", templateData)
	if err != nil {
		s.logger.Printf("Error parsing video ready template for %s: %v", email, err)
		return err
	}

	params := &resend.SendEmailRequest{
		From:    s.fromName + " <" + s.from + ">",
		ReplyTo: s.replyTo,
		To:      []string{email},
		Subject: "Your film is ready ✨",
		Html:    html,
	}

	resp, err := s.client.Emails.Send(params)
	if err != nil {
		s.logger.Printf("Failed to send film ready email to %s: %v", email, err)
		return err
	}

	s.logger.Printf("Successfully sent film ready email to %s (ID: %s)", email, resp.Id)
	return nil
}

func (s *EmailService) parseTemplate(templateName string, data interface{}) (string, error) {
	templatePath := filepath.Join(s.templatesDir, templateName)

	tmpl, err := template.ParseFiles(templatePath)
	if err != nil {
		s.logger.Printf("Error parsing template %s: %v", templateName, err)
		return "", err
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		s.logger.Printf("Error executing template %s: %v", templateName, err)
		return "", err
	}

	return body.String(), nil
}
