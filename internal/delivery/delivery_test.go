package delivery

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arstatements/internal/config"
)

func TestParseRecipients(t *testing.T) {
	tests := []struct {
		field string
		want  []string
	}{
		{"", []string{DoNotSend}},
		{"   ", []string{DoNotSend}},
		{"NO ENVIAR E.C.", []string{DoNotSend}},
		{"no enviar e.c.", []string{DoNotSend}},
		{";,", []string{DoNotSend}},
		{"a@x.com", []string{"a@x.com"}},
		{"a@x.com; b@x.com", []string{"a@x.com", "b@x.com"}},
		{"a@x.com,b@x.com;;c@x.com ", []string{"a@x.com", "b@x.com", "c@x.com"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseRecipients(tt.field), tt.field)
	}
}

func TestMask(t *testing.T) {
	assert.Equal(t, "cob......@example.com", Mask("cobros@example.com"))
	assert.Equal(t, "ab......@example.com", Mask("ab@example.com"))
	assert.Equal(t, DoNotSend, Mask(DoNotSend))
}

func TestEncodeWithAttachments(t *testing.T) {
	dir := t.TempDir()
	pdf := filepath.Join(dir, "C1_USD.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.3 test"), 0o644))

	msg, err := StatementMessage(config.EmailProfile{
		Subject: "Estados de Cuenta - Ñandú",
		ReplyTo: "cxc@example.com",
		Intro:   []string{"Adjunto su estado de cuenta."},
	}, "a@example.com", "Cliente <Uno>", []Attachment{{Path: pdf}})
	require.NoError(t, err)
	assert.Contains(t, msg.HTMLBody, "Cliente &lt;Uno&gt;")
	assert.Contains(t, msg.HTMLBody, ">cxc@example.com</a>")

	raw, err := msg.Encode("cxc@example.com", time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	parsed, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", parsed.Header.Get("To"))

	subject, err := new(mime.WordDecoder).DecodeHeader(parsed.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, "Estados de Cuenta - Ñandú", subject)

	mediaType, params, err := mime.ParseMediaType(parsed.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/mixed", mediaType)

	reader := multipart.NewReader(parsed.Body, params["boundary"])
	var names []string
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		if name := part.FileName(); name != "" {
			names = append(names, name)
			assert.Equal(t, "application/pdf", part.Header.Get("Content-Type"))
		}
	}
	assert.Equal(t, []string{"C1_USD.pdf"}, names)
}

func TestEncodeMissingAttachment(t *testing.T) {
	msg := Message{To: "a@example.com", Subject: "s", Attachments: []Attachment{{Path: filepath.Join(t.TempDir(), "gone.xlsx")}}}

	_, err := msg.Encode("from@example.com", time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingAttachment)

	var missing *MissingAttachmentError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "a@example.com", missing.Recipient)
	assert.Equal(t, "Adjunto no encontrado", Summary(err))
}

func TestSendErrorSummary(t *testing.T) {
	err := &SendError{Recipient: "a@example.com", Op: "rcpt", Err: errors.New("550 mailbox unavailable")}
	assert.ErrorIs(t, err, ErrSend)
	assert.Equal(t, "Correo NO enviado (rcpt)", Summary(err))
	assert.Empty(t, Summary(nil))
}

func TestMailerDialFailure(t *testing.T) {
	m := NewMailer("127.0.0.1", "1", "user", "pass", "", time.Second)

	err := m.Send(context.Background(), Message{To: "a@example.com", Subject: "s"})
	require.Error(t, err)

	var send *SendError
	require.True(t, errors.As(err, &send))
	assert.Equal(t, "dial", send.Op)
}
