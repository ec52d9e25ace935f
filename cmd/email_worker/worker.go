package main

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-library-management/pkg/helpers"
	"github.com/oksasatya/go-library-management/pkg/mailer"
	mailtpl "github.com/oksasatya/go-library-management/pkg/mailer/templates"
)

type outcome int

const (
	ack outcome = iota
	drop
	requeue
)

type worker struct {
	sender  mailer.Sender
	logger  *logrus.Logger
	timeout time.Duration
}

// handle renders and sends one queued job. Malformed or unrenderable jobs
// are dropped; delivery failures go back on the queue.
func (w *worker) handle(ctx context.Context, body []byte) outcome {
	var job mailer.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		w.logger.WithError(err).Warn("bad message")
		return drop
	}
	if strings.TrimSpace(job.To) == "" {
		w.logger.Warn("message without recipient")
		return drop
	}

	helpers.EnsureRecipientAndEmail(&job)
	helpers.MapTypedToUniversal(&job)

	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		s, t, h, err := mailtpl.Render(job.Template, job.Data)
		if err != nil {
			w.logger.WithError(err).WithField("template", job.Template).Warn("render failed")
			return drop
		}
		text, html = t, h
		subject = s
		if strings.EqualFold(job.Template, mailtpl.Universal) {
			subject = helpers.SubjectForUniversal(job.Data)
		}
	}

	c, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	if err := w.sender.Send(c, job.To, subject, text, html); err != nil {
		w.logger.WithError(err).WithField("to", job.To).Error("send failed")
		return requeue
	}
	w.logger.WithFields(logrus.Fields{"to": job.To, "type": job.Data["Type"]}).Info("email sent")
	return ack
}
