// Package delivery emails generated statements over SMTP.
package delivery

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"arstatements/internal/config"
)

// Sink delivers one message to one recipient.
type Sink interface {
	Send(ctx context.Context, msg Message) error
}

// DoNotSend marks clients whose documents are archived but never emailed.
const DoNotSend = "NO_ENVIAR"

const doNotSendField = "NO ENVIAR E.C."

// ParseRecipients splits the client contact field on ";" or ",". An empty
// field or the do-not-send instruction yields the DoNotSend marker.
func ParseRecipients(field string) []string {
	trimmed := strings.TrimSpace(field)
	if trimmed == "" || strings.EqualFold(trimmed, doNotSendField) {
		return []string{DoNotSend}
	}
	var out []string
	for _, part := range strings.FieldsFunc(trimmed, func(r rune) bool { return r == ';' || r == ',' }) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return []string{DoNotSend}
	}
	return out
}

// Attachment is a file sent with a message.
type Attachment struct {
	Path string
	// Name is the file name shown to the recipient; defaults to the base of Path.
	Name string
}

// Message is one email to one recipient.
type Message struct {
	To          string
	Subject     string
	HTMLBody    string
	Attachments []Attachment
}

var contentTypes = map[string]string{
	".pdf":  "application/pdf",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".png":  "image/png",
	".jpg":  "image/jpeg",
}

// Encode renders the message as a MIME multipart/mixed document.
// A missing attachment yields a *MissingAttachmentError.
func (m Message) Encode(from string, date time.Time) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	html := textproto.MIMEHeader{}
	html.Set("Content-Type", `text/html; charset="utf-8"`)
	html.Set("Content-Transfer-Encoding", "base64")
	part, err := mw.CreatePart(html)
	if err != nil {
		return nil, err
	}
	if err := writeBase64(part, []byte(m.HTMLBody)); err != nil {
		return nil, err
	}

	for _, a := range m.Attachments {
		data, err := os.ReadFile(a.Path)
		if err != nil {
			return nil, &MissingAttachmentError{Recipient: m.To, Path: a.Path, Err: err}
		}
		name := a.Name
		if name == "" {
			name = filepath.Base(a.Path)
		}
		ctype, ok := contentTypes[strings.ToLower(filepath.Ext(name))]
		if !ok {
			ctype = "application/octet-stream"
		}

		h := textproto.MIMEHeader{}
		h.Set("Content-Type", ctype)
		h.Set("Content-Transfer-Encoding", "base64")
		h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, err
		}
		if err := writeBase64(part, data); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", m.To)
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", m.Subject))
	fmt.Fprintf(&msg, "Date: %s\r\n", date.Format(time.RFC1123Z))
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/mixed; boundary=%q\r\n", mw.Boundary())
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())
	return msg.Bytes(), nil
}

// writeBase64 writes data base64 encoded in 76-character lines.
func writeBase64(w io.Writer, data []byte) error {
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 76 {
		if _, err := w.Write([]byte(encoded[:76] + "\r\n")); err != nil {
			return err
		}
		encoded = encoded[76:]
	}
	_, err := w.Write([]byte(encoded + "\r\n"))
	return err
}

var statementBody = template.Must(template.New("statement").Parse(`<html>
<body style="font-family: Arial, sans-serif; color: #333333;">
<p>Estimado Cliente: <strong>{{.ClientName}}</strong></p>
{{range .Intro}}<p>{{.}}</p>
{{end}}{{if .ReplyTo}}<p><strong>Importante:</strong> para responder a este correo escríbanos a <a href="mailto:{{.ReplyTo}}">{{.ReplyTo}}</a>.</p>
{{end}}<p>Saludos.</p>
</body>
</html>`))

// StatementMessage builds the client email carrying the statement files.
func StatementMessage(profile config.EmailProfile, to, clientName string, attachments []Attachment) (Message, error) {
	var body bytes.Buffer
	err := statementBody.Execute(&body, struct {
		ClientName string
		Intro      []string
		ReplyTo    string
	}{clientName, profile.Intro, profile.ReplyTo})
	if err != nil {
		return Message{}, fmt.Errorf("render email body: %w", err)
	}
	return Message{
		To:          to,
		Subject:     profile.Subject,
		HTMLBody:    body.String(),
		Attachments: attachments,
	}, nil
}

// LogMessage builds the email sending the delivery log to operations.
func LogMessage(to string, runDate time.Time, logPath string) Message {
	return Message{
		To:      to,
		Subject: "Control de envío de estados de cuenta " + runDate.Format("02/01/2006"),
		HTMLBody: "<html><body><p>Adjunto el control de correos enviados del " +
			runDate.Format("02/01/2006") + ".</p></body></html>",
		Attachments: []Attachment{{Path: logPath}},
	}
}
