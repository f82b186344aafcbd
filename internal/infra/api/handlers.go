package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"telegram-subscription-shop/internal/domain"
	"telegram-subscription-shop/internal/domain/model"
	"telegram-subscription-shop/internal/infra/logging"
)

const maxBodyBytes = 64 << 10

// handleResult is the server-to-server Result URL. Only a verified
// notification is answered with OK<InvId>.
func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	log := logging.With(r.Context(), s.log)
	fields, err := readFields(r)
	if err != nil {
		log.Warn().Err(err).Msg("unreadable result notification")
		writeText(w, http.StatusBadRequest, "Bad request")
		return
	}

	ack, err := s.payUC.ConfirmResult(r.Context(), resultFromFields(fields))
	switch {
	case err == nil:
		writeText(w, http.StatusOK, ack)
	case errors.Is(err, domain.ErrSignatureMismatch):
		writeText(w, http.StatusBadRequest, "Invalid signature")
	case errors.Is(err, domain.ErrInvalidArgument):
		writeText(w, http.StatusBadRequest, "Bad request")
	default:
		log.Error().Err(err).Msg("result notification failed")
		writeText(w, http.StatusInternalServerError, "Error")
	}
}

// handleSuccess is the advisory browser redirect; it never confirms a payment.
func (s *Server) handleSuccess(w http.ResponseWriter, r *http.Request) {
	fields, err := readFields(r)
	if err == nil {
		s.payUC.HandleSuccessRedirect(r.Context(), shpParams(fields))
	}
	s.renderRedirect(w, true)
}

func (s *Server) handleFail(w http.ResponseWriter, r *http.Request) {
	fields, err := readFields(r)
	if err == nil {
		s.payUC.HandleFailRedirect(r.Context(), fields["InvId"], shpParams(fields))
	}
	s.renderRedirect(w, false)
}

func (s *Server) handleListGreetings(w http.ResponseWriter, r *http.Request) {
	list, err := s.greetUC.List(r.Context())
	if err != nil {
		logging.With(r.Context(), s.log).Error().Err(err).Msg("list greetings")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type offersResponse struct {
	Currency string                    `json:"currency"`
	Offers   []model.SubscriptionOffer `json:"offers"`
}

func (s *Server) handleListOffers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, offersResponse{Currency: s.offers.Currency(), Offers: s.offers.List()})
}

type createLinkRequest struct {
	OfferID    string `json:"offerId"`
	CustomerID int64  `json:"customerId"`
	UserName   string `json:"userName"`
}

type createLinkResponse struct {
	URL       string `json:"url"`
	InvoiceID string `json:"invoiceId"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	OfferID   string `json:"offerId"`
}

// handleCreatePaymentLink lets an operator sign a link on a customer's behalf.
func (s *Server) handleCreatePaymentLink(w http.ResponseWriter, r *http.Request) {
	var req createLinkRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.OfferID == "" || req.CustomerID == 0 {
		writeError(w, http.StatusBadRequest, "offerId and customerId are required")
		return
	}

	link, err := s.payUC.StartPurchase(r.Context(), req.OfferID, req.CustomerID, req.UserName)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrUnknownOffer):
		writeError(w, http.StatusNotFound, "unknown offer")
		return
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	default:
		logging.With(r.Context(), s.log).Error().Err(err).Msg("admin payment link")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, createLinkResponse{
		URL:       link.URL,
		InvoiceID: link.Order.InvoiceID,
		Amount:    link.Order.Amount,
		Currency:  s.offers.Currency(),
		OfferID:   link.Order.Offer.ID,
	})
}

// readFields merges query parameters with a form or JSON body.
// JSON numbers keep their literal text since OutSum is signed as received.
func readFields(r *http.Request) (map[string]string, error) {
	out := map[string]string{}
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	if r.Body == nil || r.Method == http.MethodGet {
		return out, nil
	}

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			return nil, err
		}
		if len(bytes.TrimSpace(body)) == 0 {
			return out, nil
		}
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		var raw map[string]any
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode json body: %w", err)
		}
		for k, v := range raw {
			switch t := v.(type) {
			case string:
				out[k] = t
			case json.Number:
				out[k] = t.String()
			case bool:
				out[k] = fmt.Sprint(t)
			}
		}
		return out, nil
	}

	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	for k, v := range r.PostForm {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out, nil
}

func resultFromFields(f map[string]string) model.PaymentResult {
	return model.PaymentResult{
		OutSum:    f["OutSum"],
		InvoiceID: f["InvId"],
		Signature: f["SignatureValue"],
		Params:    shpParams(f),
	}
}

// shpParams collects every non-empty Shp_* field.
func shpParams(f map[string]string) model.CustomParams {
	p := model.CustomParams{}
	for k, v := range f {
		if strings.HasPrefix(k, model.ShpPrefix) && v != "" {
			p[k] = v
		}
	}
	return p
}
