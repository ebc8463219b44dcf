package landing

import (
	"bytes"
	_ "embed"

	"github.com/wolfman30/chispart-landing/internal/demochat"
	"github.com/wolfman30/chispart-landing/internal/page"
	"github.com/wolfman30/chispart-landing/internal/schedule"
	"github.com/wolfman30/chispart-landing/internal/session"
	"github.com/wolfman30/chispart-landing/pkg/logging"
)

var (
	//go:embed assets/index.html
	indexHTML []byte
	//go:embed assets/landing.js
	landingJS []byte
)

// TourButtonLabel is the text of the button added to the hero to start the tour.
const TourButtonLabel = "🎯 Tour Guiado"

// NewSessionFactory builds sessions from the embedded landing page. Each new
// session records the chat greeting and gets the tour button in its hero.
func NewSessionFactory(chat *demochat.Engine, clock schedule.Clock, logger *logging.Logger) session.Factory {
	return newFactory(indexHTML, chat, clock, logger)
}

func newFactory(template []byte, chat *demochat.Engine, clock schedule.Clock, logger *logging.Logger) session.Factory {
	return func(id, visitorID string) (*session.Session, error) {
		doc, err := page.Parse(bytes.NewReader(template))
		if err != nil {
			return nil, err
		}
		s := session.New(id, doc, clock, logger)
		s.VisitorID = visitorID
		s.Logger = s.Logger.With("visitor_id", visitorID)
		s.Do(func(s *session.Session) {
			chat.Seed(s)
			addTourButton(s)
		})
		return s, nil
	}
}

func addTourButton(s *session.Session) {
	hero := s.Page.Query(".hero-buttons")
	if hero == nil {
		return
	}
	s.Page.Append(hero, page.NewElement("button").
		WithClass("btn-secondary").
		WithAttr("data-action", ActionStartTour).
		WithStyle("margin-left", "10px").
		WithText(TourButtonLabel))
}
