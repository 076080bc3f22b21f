package mail

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"grabeat/internal/config"
	"grabeat/internal/logger"
	"grabeat/internal/models"
)

// Attachment is an optional file part added to an outgoing message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Mailer delivers templated HTML email over SMTP. Every send is
// best-effort from the caller's point of view; the error is returned
// so the caller can record it, never so it can abort a request.
type Mailer struct {
	cfg         config.EmailConfig
	frontendURL string
	log         *logger.Logger
}

func NewMailer(cfg config.EmailConfig, frontendURL string, log *logger.Logger) *Mailer {
	return &Mailer{cfg: cfg, frontendURL: frontendURL, log: log}
}

// SendOrderNotification mails the order summary to the admin mailbox.
func (m *Mailer) SendOrderNotification(order *models.Order) error {
	to := m.cfg.AdminEmail
	if to == "" {
		to = m.cfg.SMTPUsername
	}

	subject := fmt.Sprintf("NEW ORDER #%s - %s", shortOrderRef(order.ID), formatEuros(order.TotalAmount))
	body, err := renderOrderNotification(order)
	if err != nil {
		return fmt.Errorf("failed to render order notification: %w", err)
	}

	if err := m.send(to, subject, body, nil); err != nil {
		return err
	}
	m.log.LogMail("ORDER_NOTIFICATION", to, fmt.Sprintf("Sent for order %s", order.ID))
	return nil
}

// SendPromocodeEmail mails a freshly issued code to the customer, with
// the QR rendering of the code attached when available.
func (m *Mailer) SendPromocodeEmail(to, code string, discount int, validUntil time.Time, qrPNG []byte) error {
	subject := fmt.Sprintf("Your Exclusive %d%% OFF Promocode: %s - Grab & Eat", discount, code)
	body, err := renderPromocodeEmail(to, code, discount, validUntil, m.frontendURL)
	if err != nil {
		return fmt.Errorf("failed to render promocode email: %w", err)
	}

	var attachment *Attachment
	if len(qrPNG) > 0 {
		attachment = &Attachment{
			Filename:    fmt.Sprintf("promocode-%s.png", code),
			ContentType: "image/png",
			Data:        qrPNG,
		}
	}

	if err := m.send(to, subject, body, attachment); err != nil {
		return err
	}
	m.log.LogMail("PROMOCODE", to, fmt.Sprintf("Sent code %s", code))
	return nil
}

func (m *Mailer) send(to, subject, htmlBody string, attachment *Attachment) error {
	if m.cfg.SMTPUsername == "" || m.cfg.SMTPPassword == "" {
		return fmt.Errorf("smtp credentials not configured")
	}

	msg, err := buildMessage(m.cfg.SMTPUsername, to, subject, htmlBody, attachment)
	if err != nil {
		return fmt.Errorf("failed to build message: %w", err)
	}

	addr := m.cfg.SMTPHost + ":" + m.cfg.SMTPPort
	auth := smtp.PlainAuth("", m.cfg.SMTPUsername, m.cfg.SMTPPassword, m.cfg.SMTPHost)
	if err := smtp.SendMail(addr, auth, m.cfg.SMTPUsername, []string{to}, msg); err != nil {
		return fmt.Errorf("smtp send to %s failed: %w", to, err)
	}
	return nil
}

// buildMessage assembles a multipart/mixed MIME message with one HTML
// part and an optional base64 attachment part.
func buildMessage(from, to, subject, htmlBody string, attachment *Attachment) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", writer.Boundary())

	htmlHeader := textproto.MIMEHeader{}
	htmlHeader.Set("Content-Type", "text/html; charset=UTF-8")
	htmlPart, err := writer.CreatePart(htmlHeader)
	if err != nil {
		return nil, err
	}
	if _, err := htmlPart.Write([]byte(htmlBody)); err != nil {
		return nil, err
	}

	if attachment != nil {
		attHeader := textproto.MIMEHeader{}
		attHeader.Set("Content-Type", attachment.ContentType)
		attHeader.Set("Content-Transfer-Encoding", "base64")
		attHeader.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", attachment.Filename))
		attPart, err := writer.CreatePart(attHeader)
		if err != nil {
			return nil, err
		}
		encoded := base64.StdEncoding.EncodeToString(attachment.Data)
		if _, err := attPart.Write([]byte(encoded)); err != nil {
			return nil, err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func shortOrderRef(orderID string) string {
	if len(orderID) > 8 {
		orderID = orderID[len(orderID)-8:]
	}
	return strings.ToUpper(orderID)
}

func formatEuros(cents int64) string {
	return fmt.Sprintf("€%.2f", float64(cents)/100)
}
