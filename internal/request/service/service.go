package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quicksign/quicksign/internal/document"
	docrepo "github.com/quicksign/quicksign/internal/document/repository"
	"github.com/quicksign/quicksign/internal/field"
	"github.com/quicksign/quicksign/internal/models"
	"github.com/quicksign/quicksign/internal/notify"
	"github.com/quicksign/quicksign/internal/request"
	"github.com/quicksign/quicksign/internal/request/repository"
	"github.com/quicksign/quicksign/pkg/logger"
	"github.com/quicksign/quicksign/pkg/metrics"
)

var (
	ErrRequestNotFound   = repository.ErrNotFound
	ErrDocumentNotFound  = errors.New("document not found")
	ErrSignerNotFound    = errors.New("signer not found")
	ErrInvalidSigners    = errors.New("at least one signer with an email is required")
	ErrOutOfTurn         = errors.New("not your turn to sign")
	ErrAlreadySigned     = errors.New("signer has already signed")
	ErrRequestNotActive  = errors.New("signature request is not active")
	ErrDeclineNotAllowed = errors.New("declining is not allowed for this request")
	ErrNotRequester      = errors.New("only the requester may do this")
)

const (
	defaultExpiry   = 30 * 24 * time.Hour
	defaultReminder = "weekly"
	defaultSubject  = "Document Signature Required"
)

// UserLookup resolves a user id to its account, for sender names on outgoing
// mail. May return an error for unknown ids.
type UserLookup func(ctx context.Context, id string) (*models.User, error)

// Service runs the signature request workflow. All signer state transitions
// happen here, serialized per request, and every state change commits before
// its notifications are enqueued.
type Service struct {
	repo    repository.Repository
	docs    docrepo.Repository
	fields  *field.Service
	outbox  *notify.Outbox
	users   UserLookup
	baseURL string

	locks sync.Map // request id -> *sync.Mutex
}

func New(repo repository.Repository, docs docrepo.Repository, fields *field.Service, outbox *notify.Outbox, users UserLookup, baseURL string) *Service {
	return &Service{repo: repo, docs: docs, fields: fields, outbox: outbox, users: users, baseURL: baseURL}
}

func (s *Service) lock(requestID string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(requestID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// SignerInput is a caller-supplied signer. Order <= 0 defaults to the 1-based
// input position.
type SignerInput struct {
	Name  string `json:"name"`
	Email string `json:"email" binding:"required"`
	Order int    `json:"order"`
}

// SettingsInput overrides the request defaults. Nil booleans keep the
// defaults (unordered, decline allowed).
type SettingsInput struct {
	RequireOrder      *bool      `json:"requireOrder"`
	AllowDecline      *bool      `json:"allowDecline"`
	ExpiresAt         *time.Time `json:"expiresAt"`
	ReminderFrequency string     `json:"reminderFrequency"`
	Subject           string     `json:"subject"`
	Message           string     `json:"message"`
}

func buildSettings(in *SettingsInput, now time.Time) request.Settings {
	st := request.Settings{
		RequireOrder:      false,
		AllowDecline:      true,
		ReminderFrequency: defaultReminder,
		Subject:           defaultSubject,
	}
	exp := now.Add(defaultExpiry)
	st.ExpiresAt = &exp
	if in == nil {
		return st
	}
	if in.RequireOrder != nil {
		st.RequireOrder = *in.RequireOrder
	}
	if in.AllowDecline != nil {
		st.AllowDecline = *in.AllowDecline
	}
	if in.ExpiresAt != nil {
		st.ExpiresAt = in.ExpiresAt
	}
	if in.ReminderFrequency != "" {
		st.ReminderFrequency = in.ReminderFrequency
	}
	if in.Subject != "" {
		st.Subject = in.Subject
	}
	st.Message = in.Message
	return st
}

func buildSigners(in []SignerInput) []request.Signer {
	out := make([]request.Signer, len(in))
	for i, si := range in {
		order := si.Order
		if order <= 0 {
			order = i + 1
		}
		name := si.Name
		if name == "" {
			name = si.Email
		}
		out[i] = request.Signer{
			ID:     uuid.NewString(),
			Name:   name,
			Email:  si.Email,
			Order:  order,
			Status: request.SignerPending,
		}
	}
	return out
}

// Create opens a signature request over an existing document and notifies the
// signers who may act first.
func (s *Service) Create(ctx context.Context, documentID, requesterID string, signers []SignerInput, settings *SettingsInput) (*request.Request, error) {
	doc, err := s.docs.Get(ctx, documentID)
	if err != nil {
		return nil, ErrDocumentNotFound
	}
	if len(signers) == 0 {
		return nil, ErrInvalidSigners
	}
	for _, si := range signers {
		if si.Email == "" {
			return nil, ErrInvalidSigners
		}
	}

	now := time.Now().UTC()
	r := &request.Request{
		ID:          uuid.NewString(),
		DocumentID:  documentID,
		RequesterID: requesterID,
		Signers:     buildSigners(signers),
		Settings:    buildSettings(settings, now),
		Status:      request.StatusActive,
		CreatedAt:   now,
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, err
	}
	if doc.Status == document.StatusUploaded {
		if err := s.docs.SetStatus(ctx, documentID, document.StatusPendingSignatures, nil); err != nil {
			logger.Warnf("document %s status update: %v", documentID, err)
		}
	}
	metrics.RequestsCreated.Inc()
	logger.Infof("signature request %s created for document %s with %d signer(s)", r.ID, documentID, len(r.Signers))

	s.enqueueRouting(ctx, r, doc.OriginalName, s.initialRecipients(r))
	return r, nil
}

// initialRecipients picks who gets the creation email: everyone when
// unordered, only first-order signers when ordered.
func (s *Service) initialRecipients(r *request.Request) []*request.Signer {
	out := []*request.Signer{}
	for i := range r.Signers {
		if r.Settings.RequireOrder && r.Signers[i].Order > 1 {
			continue
		}
		out = append(out, &r.Signers[i])
	}
	return out
}

func (s *Service) senderName(ctx context.Context, requesterID string) string {
	if s.users != nil {
		if u, err := s.users(ctx, requesterID); err == nil {
			if u.FullName != "" {
				return u.FullName
			}
			return u.Email
		}
	}
	return "QuickSign Pro"
}

func (s *Service) signingLink(requestID, signerID string) string {
	return fmt.Sprintf("%s/sign.html?id=%s&signer=%s", s.baseURL, requestID, signerID)
}

func (s *Service) enqueueRouting(ctx context.Context, r *request.Request, documentName string, recipients []*request.Signer) {
	sender := s.senderName(ctx, r.RequesterID)
	for _, sg := range recipients {
		s.outbox.Enqueue(notify.NewNotification(
			notify.KindSignatureRequest, sg.Email, sg.Name, r.Settings.Subject,
			map[string]string{
				"senderName":   sender,
				"message":      r.Settings.Message,
				"signingLink":  s.signingLink(r.ID, sg.ID),
				"documentName": documentName,
			},
		))
	}
}

func (s *Service) enqueueCompletion(ctx context.Context, r *request.Request, documentName string) {
	sender := s.senderName(ctx, r.RequesterID)
	subject := fmt.Sprintf("Document Completed: %s", documentName)
	for i := range r.Signers {
		sg := &r.Signers[i]
		s.outbox.Enqueue(notify.NewNotification(
			notify.KindCompletion, sg.Email, sg.Name, subject,
			map[string]string{"senderName": sender, "documentName": documentName, "isRequester": "false"},
		))
	}
	if s.users != nil {
		if u, err := s.users(ctx, r.RequesterID); err == nil {
			name := u.FullName
			if name == "" {
				name = u.Email
			}
			s.outbox.Enqueue(notify.NewNotification(
				notify.KindCompletion, u.Email, name, subject,
				map[string]string{"senderName": sender, "documentName": documentName, "isRequester": "true"},
			))
		}
	}
}

// nextPending returns the signer whose turn it is: with ordering, the lowest
// pending order with earlier insertion winning ties; otherwise the first
// pending signer in insertion order.
func nextPending(r *request.Request) *request.Signer {
	idx := -1
	for i := range r.Signers {
		sg := &r.Signers[i]
		if sg.Status != request.SignerPending {
			continue
		}
		if !r.Settings.RequireOrder {
			return sg
		}
		if idx == -1 || sg.Order < r.Signers[idx].Order {
			idx = i
		}
	}
	if idx == -1 {
		return nil
	}
	return &r.Signers[idx]
}

// expireIfDue flips a past-deadline active request to expired and persists
// the change. Reports whether the request is usable for signing afterwards.
func (s *Service) expireIfDue(ctx context.Context, r *request.Request) bool {
	if r.Status != request.StatusActive {
		return false
	}
	if r.Settings.ExpiresAt != nil && time.Now().UTC().After(*r.Settings.ExpiresAt) {
		r.Status = request.StatusExpired
		if err := s.repo.Update(ctx, r); err != nil {
			logger.Warnf("persist expiry of request %s: %v", r.ID, err)
		}
		return false
	}
	return true
}

// NextSigner reports whose turn it is, or nil when the request is missing or
// no longer active.
func (s *Service) NextSigner(ctx context.Context, requestID string) (*request.Signer, error) {
	r, err := s.repo.Get(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !s.expireIfDue(ctx, r) {
		return nil, nil
	}
	return nextPending(r), nil
}

// SignInput is the payload of a signing action. FieldID is optional; an
// unknown field id does not fail the signature.
type SignInput struct {
	FieldID       string `json:"fieldId"`
	SignatureData string `json:"signatureData"`
}

// Sign records one signer's signature. The whole read-modify-write runs under
// the request's mutex; an out-of-turn attempt mutates nothing.
func (s *Service) Sign(ctx context.Context, requestID, signerID string, in SignInput) (*request.Request, error) {
	mu := s.lock(requestID)
	mu.Lock()
	defer mu.Unlock()

	r, err := s.repo.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !s.expireIfDue(ctx, r) {
		return nil, ErrRequestNotActive
	}
	sg := r.SignerByID(signerID)
	if sg == nil {
		return nil, ErrSignerNotFound
	}
	if sg.Status == request.SignerSigned {
		return nil, ErrAlreadySigned
	}
	if r.Settings.RequireOrder {
		next := nextPending(r)
		if next == nil || next.ID != signerID {
			return nil, ErrOutOfTurn
		}
	}

	now := time.Now().UTC()
	if in.FieldID != "" {
		if err := s.fields.Fill(ctx, in.FieldID, in.SignatureData, now); err != nil {
			if errors.Is(err, field.ErrFieldNotFound) {
				logger.Warnf("sign request %s: unknown field %s, signature recorded without field", requestID, in.FieldID)
			} else {
				return nil, err
			}
		}
	}

	sg.Status = request.SignerSigned
	sg.SignedAt = &now
	sg.SignatureData = in.SignatureData

	completed := r.AllSigned()
	if completed {
		r.Status = request.StatusCompleted
		r.CompletedAt = &now
	}
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}
	metrics.SignaturesRecorded.Inc()
	logger.Infof("signer %s signed request %s", signerID, requestID)

	doc, docErr := s.docs.Get(ctx, r.DocumentID)
	documentName := "Document"
	if docErr == nil {
		documentName = doc.OriginalName
	}

	if completed {
		metrics.RequestsCompleted.Inc()
		if docErr == nil {
			if err := s.docs.SetStatus(ctx, r.DocumentID, document.StatusCompleted, &now); err != nil {
				logger.Warnf("document %s completion status: %v", r.DocumentID, err)
			}
		}
		s.enqueueCompletion(ctx, r, documentName)
		logger.Infof("signature request %s completed", requestID)
	} else if r.Settings.RequireOrder {
		if next := nextPending(r); next != nil {
			s.enqueueRouting(ctx, r, documentName, []*request.Signer{next})
		}
	}
	return r, nil
}

// IsComplete reports whether every signer on the request has signed.
func (s *Service) IsComplete(ctx context.Context, requestID string) (bool, error) {
	r, err := s.repo.Get(ctx, requestID)
	if err != nil {
		return false, err
	}
	return r.AllSigned(), nil
}

// Decline marks the signer declined and cancels the whole request.
func (s *Service) Decline(ctx context.Context, requestID, signerID string) (*request.Request, error) {
	mu := s.lock(requestID)
	mu.Lock()
	defer mu.Unlock()

	r, err := s.repo.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !s.expireIfDue(ctx, r) {
		return nil, ErrRequestNotActive
	}
	sg := r.SignerByID(signerID)
	if sg == nil {
		return nil, ErrSignerNotFound
	}
	if !r.Settings.AllowDecline {
		return nil, ErrDeclineNotAllowed
	}
	if sg.Status == request.SignerSigned {
		return nil, ErrAlreadySigned
	}

	sg.Status = request.SignerDeclined
	r.Status = request.StatusCancelled
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}
	logger.Infof("signer %s declined request %s, request cancelled", signerID, requestID)
	return r, nil
}

// Cancel lets the requester withdraw an active request.
func (s *Service) Cancel(ctx context.Context, requestID, requesterID string) (*request.Request, error) {
	mu := s.lock(requestID)
	mu.Lock()
	defer mu.Unlock()

	r, err := s.repo.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if r.RequesterID != requesterID {
		return nil, ErrNotRequester
	}
	if !s.expireIfDue(ctx, r) {
		return nil, ErrRequestNotActive
	}
	r.Status = request.StatusCancelled
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}
	logger.Infof("request %s cancelled by requester", requestID)
	return r, nil
}

// Get loads a request, lazily enforcing expiry.
func (s *Service) Get(ctx context.Context, requestID string) (*request.Request, error) {
	r, err := s.repo.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	s.expireIfDue(ctx, r)
	return r, nil
}

// StatusView is the public completion probe used by the signing page.
type StatusView struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	IsCompleted bool       `json:"isCompleted"`
	SignedCount int        `json:"signedCount"`
	SignerCount int        `json:"signerCount"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Status answers the lightweight "is it done yet" poll.
func (s *Service) Status(ctx context.Context, requestID string) (*StatusView, error) {
	r, err := s.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	signed := 0
	for i := range r.Signers {
		if r.Signers[i].Status == request.SignerSigned {
			signed++
		}
	}
	return &StatusView{
		ID:          r.ID,
		Status:      r.Status,
		IsCompleted: r.Status == request.StatusCompleted,
		SignedCount: signed,
		SignerCount: len(r.Signers),
		CompletedAt: r.CompletedAt,
	}, nil
}

// SigningView is a request seen from one signer's seat.
type SigningView struct {
	Request  *request.Request `json:"request"`
	SignerID string           `json:"signerId"`
	CanSign  bool             `json:"canSign"`
}

// UserRequests groups what a user created and what awaits their signature.
type UserRequests struct {
	Created []*request.Request `json:"created"`
	Signing []*SigningView     `json:"signing"`
}

// ForUser lists the requests a user created plus those naming their email as
// a signer, with a per-seat canSign flag.
func (s *Service) ForUser(ctx context.Context, userID, email string) (*UserRequests, error) {
	created, err := s.repo.ListByRequester(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, r := range created {
		s.expireIfDue(ctx, r)
	}

	out := &UserRequests{Created: created, Signing: []*SigningView{}}
	if email == "" {
		return out, nil
	}
	signing, err := s.repo.ListBySignerEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	for _, r := range signing {
		active := s.expireIfDue(ctx, r)
		sg := r.SignerByEmail(email)
		if sg == nil {
			continue
		}
		canSign := active && sg.Status == request.SignerPending
		if canSign && r.Settings.RequireOrder {
			next := nextPending(r)
			canSign = next != nil && next.ID == sg.ID
		}
		out.Signing = append(out.Signing, &SigningView{Request: r, SignerID: sg.ID, CanSign: canSign})
	}
	return out, nil
}

// AddSigners extends a document's open request with more signers, creating a
// fresh request when none is active. This backs the document-level signer
// endpoint so signer state keeps a single home.
func (s *Service) AddSigners(ctx context.Context, documentID, requesterID string, signers []SignerInput) (*request.Request, error) {
	if len(signers) == 0 {
		return nil, ErrInvalidSigners
	}
	open, err := s.activeForDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if open == nil {
		return s.Create(ctx, documentID, requesterID, signers, nil)
	}

	mu := s.lock(open.ID)
	mu.Lock()
	defer mu.Unlock()

	r, err := s.repo.Get(ctx, open.ID)
	if err != nil {
		return nil, err
	}
	maxOrder := 0
	for i := range r.Signers {
		if r.Signers[i].Order > maxOrder {
			maxOrder = r.Signers[i].Order
		}
	}
	added := buildSigners(signers)
	for i := range added {
		if signers[i].Order <= 0 {
			added[i].Order = maxOrder + i + 1
		}
		if signers[i].Email == "" {
			return nil, ErrInvalidSigners
		}
		r.Signers = append(r.Signers, added[i])
	}
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}

	doc, err := s.docs.Get(ctx, r.DocumentID)
	documentName := "Document"
	if err == nil {
		documentName = doc.OriginalName
	}
	recipients := []*request.Signer{}
	for i := range r.Signers {
		for j := range added {
			if r.Signers[i].ID == added[j].ID {
				if r.Settings.RequireOrder && r.Signers[i].Order > 1 {
					continue
				}
				recipients = append(recipients, &r.Signers[i])
			}
		}
	}
	s.enqueueRouting(ctx, r, documentName, recipients)
	return r, nil
}

func (s *Service) activeForDocument(ctx context.Context, documentID string) (*request.Request, error) {
	rs, err := s.repo.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	for _, r := range rs {
		if s.expireIfDue(ctx, r) {
			return r, nil
		}
	}
	return nil, nil
}

// SignByEmail resolves a signer by email within the document's active request
// and signs on their behalf. Backs the document-level signature endpoint.
func (s *Service) SignByEmail(ctx context.Context, documentID, email string, in SignInput) (*request.Request, error) {
	open, err := s.activeForDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if open == nil {
		return nil, ErrRequestNotFound
	}
	sg := open.SignerByEmail(email)
	if sg == nil {
		return nil, ErrSignerNotFound
	}
	return s.Sign(ctx, open.ID, sg.ID, in)
}

// SignatureRecord is one collected signature in a document projection.
type SignatureRecord struct {
	RequestID     string     `json:"requestId"`
	SignerID      string     `json:"signerId"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	SignedAt      *time.Time `json:"signedAt,omitempty"`
	SignatureData string     `json:"signatureData,omitempty"`
}

// Projection is the derived signer/signature view of a document, computed
// from its signature requests.
type Projection struct {
	DocumentID string            `json:"documentId"`
	Status     string            `json:"status"`
	Signers    []request.Signer  `json:"signers"`
	Signatures []SignatureRecord `json:"signatures"`
}

// ProjectDocument derives a document's signer and signature view across its
// requests. Status: any active request wins, else completed if any completed,
// else uploaded.
func (s *Service) ProjectDocument(ctx context.Context, documentID string) (*Projection, error) {
	if _, err := s.docs.Get(ctx, documentID); err != nil {
		return nil, ErrDocumentNotFound
	}
	rs, err := s.repo.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	p := &Projection{DocumentID: documentID, Status: document.StatusUploaded, Signers: []request.Signer{}, Signatures: []SignatureRecord{}}
	anyActive, anyCompleted := false, false
	for _, r := range rs {
		if s.expireIfDue(ctx, r) {
			anyActive = true
		}
		if r.Status == request.StatusCompleted {
			anyCompleted = true
		}
		for i := range r.Signers {
			sg := r.Signers[i]
			p.Signers = append(p.Signers, sg)
			if sg.Status == request.SignerSigned {
				p.Signatures = append(p.Signatures, SignatureRecord{
					RequestID:     r.ID,
					SignerID:      sg.ID,
					Name:          sg.Name,
					Email:         sg.Email,
					SignedAt:      sg.SignedAt,
					SignatureData: sg.SignatureData,
				})
			}
		}
	}
	if anyActive {
		p.Status = document.StatusPendingSignatures
	} else if anyCompleted {
		p.Status = document.StatusCompleted
	}
	return p, nil
}

// DeleteByRequester removes a user's requests, for admin cascade deletes.
// Returns how many were removed.
func (s *Service) DeleteByRequester(ctx context.Context, userID string) (int, error) {
	rs, err := s.repo.ListByRequester(ctx, userID)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, r := range rs {
		if err := s.repo.Delete(ctx, r.ID); err != nil {
			logger.Warnf("delete request %s: %v", r.ID, err)
			continue
		}
		removed++
	}
	return removed, nil
}

// All lists every request, for admin stats.
func (s *Service) All(ctx context.Context) ([]*request.Request, error) {
	return s.repo.List(ctx)
}
