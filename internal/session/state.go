package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"time"
)

// Sender identifies who wrote a demo chat entry.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// ChatMessage is one entry of the demo chat transcript.
type ChatMessage struct {
	Text   string    `json:"text"`
	Sender Sender    `json:"sender"`
	At     time.Time `json:"at"`
}

// Stage is the visitor's position in the signup funnel.
type Stage string

const (
	StageBrowsing            Stage = "browsing"
	StagePlanSelected        Stage = "plan_selected"
	StageRegistered          Stage = "registered"
	StagePaymentMethodChosen Stage = "payment_method_chosen"
	StageProcessing          Stage = "processing"
	StagePaid                Stage = "paid"
)

// State is the per-visitor record shared by the tour, the demo chat and the funnel.
type State struct {
	SelectedPlan          string        `json:"selected_plan,omitempty"`
	SelectedPrice         *Price        `json:"selected_price,omitempty"`
	SelectedPaymentMethod string        `json:"selected_payment_method,omitempty"`
	TourActive            bool          `json:"tour_active"`
	TourStep              int           `json:"tour_step"`
	DemoMessages          []ChatMessage `json:"demo_messages"`
	Stage                 Stage         `json:"stage"`
}

// AppendMessage adds a transcript entry. The transcript is never trimmed.
func (s *State) AppendMessage(msg ChatMessage) {
	s.DemoMessages = append(s.DemoMessages, msg)
}

// Clone returns a deep copy safe to hand outside the session lock.
func (s State) Clone() State {
	out := s
	out.DemoMessages = slices.Clone(s.DemoMessages)
	if s.SelectedPrice != nil {
		p := *s.SelectedPrice
		out.SelectedPrice = &p
	}
	return out
}

// Price is a plan price as given by the page: either a number or a string.
type Price struct {
	number float64
	text   string
	isText bool
}

// NumberPrice builds a numeric price.
func NumberPrice(v float64) Price {
	return Price{number: v}
}

// TextPrice builds a free-form price such as "Contactar".
func TextPrice(s string) Price {
	return Price{text: s, isText: true}
}

// IsNumber reports whether the price is numeric.
func (p Price) IsNumber() bool {
	return !p.isText
}

// Number returns the numeric value, zero for text prices.
func (p Price) Number() float64 {
	return p.number
}

// String renders the price the way the page displays it.
func (p Price) String() string {
	if p.isText {
		return p.text
	}
	return strconv.FormatFloat(p.number, 'f', -1, 64)
}

func (p Price) MarshalJSON() ([]byte, error) {
	if p.isText {
		return json.Marshal(p.text)
	}
	return []byte(p.String()), nil
}

func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("session: decode price: %w", err)
		}
		*p = TextPrice(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("session: decode price: %w", err)
	}
	*p = NumberPrice(f)
	return nil
}
