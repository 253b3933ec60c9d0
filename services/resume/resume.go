package resume

import (
	"context"
	"errors"

	"github.com/campusconnect/api/utils"
)

// ErrEmptyResume is returned for a form without a name and without any section
var ErrEmptyResume = errors.New("resume has no content")

// Request is the body of a render call
type Request struct {
	FormData    Document `json:"formData" validate:"required"`
	PaymentData *Payment `json:"paymentData"`
}

// Result is a rendered resume
type Result struct {
	PDF         []byte
	Watermarked bool
}

// Service renders resumes and decides on the watermark
type Service struct {
	paymentSecret string
	log           *utils.Logger
}

// NewService creates a resume service; paymentSecret verifies checkout proofs
func NewService(paymentSecret string, log *utils.Logger) *Service {
	return &Service{paymentSecret: paymentSecret, log: log}
}

// Generate renders req.FormData. A valid payment proof removes the watermark;
// an absent or invalid one keeps it.
func (s *Service) Generate(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if empty(req.FormData) {
		return nil, ErrEmptyResume
	}

	paid := VerifyPayment(s.paymentSecret, req.PaymentData)
	if req.PaymentData != nil && !paid {
		s.log.Warn("resume payment proof rejected", "order_id", req.PaymentData.OrderID)
	}

	pdf, err := Render(req.FormData, !paid)
	if err != nil {
		return nil, err
	}
	return &Result{PDF: pdf, Watermarked: !paid}, nil
}

func empty(d Document) bool {
	if d.Name != "" || d.Email != "" || d.Phone != "" || d.Summary != "" || d.Skills != "" {
		return false
	}
	for _, e := range d.Education {
		if e.Degree != "" {
			return false
		}
	}
	for _, e := range d.Experience {
		if e.Title != "" {
			return false
		}
	}
	for _, p := range d.Projects {
		if p.Name != "" {
			return false
		}
	}
	for _, a := range d.Achievements {
		if a.Description != "" {
			return false
		}
	}
	return true
}
