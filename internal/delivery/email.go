package delivery

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrNoRecipients = errors.New("no recipients specified")

// EmailConfig configuration for email delivery
type EmailConfig struct {
	FromAddress string `json:"from_address"`
	FromName    string `json:"from_name"`
}

// EmailDelivery represents an email delivery request
type EmailDelivery struct {
	To          []string     `json:"to"`
	Subject     string       `json:"subject"`
	HTMLBody    string       `json:"html_body"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment represents an email attachment
type Attachment struct {
	Name        string `json:"name"`
	Data        []byte `json:"data"`
	ContentType string `json:"content_type"`
}

// SESAPI is the subset of the SES v2 client used for delivery
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Mailer sends raw MIME emails through Amazon SES
type Mailer struct {
	ses      SESAPI
	config   EmailConfig
	logger   *zap.Logger
	boundary func() string
}

// NewMailer creates a new SES mailer
func NewMailer(ses SESAPI, config EmailConfig, logger *zap.Logger) *Mailer {
	return &Mailer{
		ses:    ses,
		config: config,
		logger: logger,
		boundary: func() string {
			return "part-" + strings.ReplaceAll(uuid.NewString(), "-", "")
		},
	}
}

// SendEmail delivers an HTML email with optional attachments
func (m *Mailer) SendEmail(ctx context.Context, email EmailDelivery) error {
	if len(email.To) == 0 {
		return ErrNoRecipients
	}

	m.logger.Info("Sending email",
		zap.Strings("to", email.To),
		zap.String("subject", email.Subject),
		zap.Int("attachments", len(email.Attachments)))

	msg, err := m.buildMessage(email)
	if err != nil {
		return err
	}

	out, err := m.ses.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(m.config.FromAddress),
		Destination:      &types.Destination{ToAddresses: email.To},
		Content: &types.EmailContent{
			Raw: &types.RawMessage{Data: msg},
		},
	})
	if err != nil {
		m.logger.Error("Failed to send email",
			zap.Error(err),
			zap.Strings("to", email.To))
		return fmt.Errorf("failed to send email: %w", err)
	}

	m.logger.Info("Email sent successfully",
		zap.Strings("to", email.To),
		zap.String("message_id", aws.ToString(out.MessageId)))
	return nil
}

// buildMessage renders a multipart/mixed message with an HTML body part
func (m *Mailer) buildMessage(email EmailDelivery) ([]byte, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.SetBoundary(m.boundary()); err != nil {
		return nil, fmt.Errorf("failed to set MIME boundary: %w", err)
	}

	from := (&mail.Address{Name: m.config.FromName, Address: m.config.FromAddress}).String()
	headers := []string{
		"From: " + from,
		"To: " + strings.Join(email.To, ", "),
		"Subject: " + mime.QEncoding.Encode("utf-8", email.Subject),
		"MIME-Version: 1.0",
		fmt.Sprintf("Content-Type: multipart/mixed; boundary=%q", w.Boundary()),
	}
	buf.WriteString(strings.Join(headers, "\r\n") + "\r\n\r\n")

	body, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/html; charset=utf-8"},
		"Content-Transfer-Encoding": {"base64"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create body part: %w", err)
	}
	writeBase64(body, []byte(email.HTMLBody))

	for _, attachment := range email.Attachments {
		contentType := attachment.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		part, err := w.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {mime.FormatMediaType(contentType, map[string]string{"name": attachment.Name})},
			"Content-Transfer-Encoding": {"base64"},
			"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": attachment.Name})},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create attachment part: %w", err)
		}
		writeBase64(part, attachment.Data)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish MIME message: %w", err)
	}
	return buf.Bytes(), nil
}

// writeBase64 writes data base64 encoded in 76 character lines
func writeBase64(w io.Writer, data []byte) {
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 76 {
		w.Write([]byte(encoded[:76] + "\r\n"))
		encoded = encoded[76:]
	}
	w.Write([]byte(encoded + "\r\n"))
}
