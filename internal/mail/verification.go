package mail

import (
	"bytes"
	"encoding/json"
	htmltmpl "html/template"
	"net/url"
	"strings"
	texttmpl "text/template"

	"classroll/internal/queue"
)

// TypeVerifyEmail is the queue message type for verification emails.
const TypeVerifyEmail = "verify_email"

// VerificationJob is the queued payload for a verification email.
type VerificationJob struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"token"`
}

// NewVerificationMessage encodes job as a queue message.
func NewVerificationMessage(job VerificationJob) (queue.Message, error) {
	body, err := json.Marshal(job)
	if err != nil {
		return queue.Message{}, err
	}
	return queue.Message{Type: TypeVerifyEmail, Body: body}, nil
}

const verifySubject = "Verify your email"

var (
	verifyText = texttmpl.Must(texttmpl.New("verify.txt").Parse(`Hello {{.Name}},

Please confirm your email address by opening the link below:

{{.Link}}

If you did not create an account you can ignore this message.
`))

	verifyHTML = htmltmpl.Must(htmltmpl.New("verify.html").Parse(`<p>Hello {{.Name}},</p>
<p>Please confirm your email address by clicking the link below:</p>
<p><a href="{{.Link}}">Verify email</a></p>
<p>If you did not create an account you can ignore this message.</p>
`))
)

// VerificationEmail renders the verification message for job. The link
// points at GET {baseURL}/verify-email?token=...
func VerificationEmail(baseURL string, job VerificationJob) (Message, error) {
	data := struct{ Name, Link string }{
		Name: job.Name,
		Link: strings.TrimRight(baseURL, "/") + "/verify-email?token=" + url.QueryEscape(job.Token),
	}

	var text, html bytes.Buffer
	if err := verifyText.Execute(&text, data); err != nil {
		return Message{}, err
	}
	if err := verifyHTML.Execute(&html, data); err != nil {
		return Message{}, err
	}
	return Message{
		ToName:  job.Name,
		ToEmail: job.Email,
		Subject: verifySubject,
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}
