package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode"

	"github.com/antoniostano/tripgenie/internal/audit"
	"github.com/antoniostano/tripgenie/internal/confirm"
	"github.com/antoniostano/tripgenie/internal/geo"
	"github.com/antoniostano/tripgenie/internal/itinerary"
	"github.com/antoniostano/tripgenie/internal/nlp"
	"github.com/antoniostano/tripgenie/internal/observability"
	"github.com/antoniostano/tripgenie/internal/places"
	"github.com/antoniostano/tripgenie/internal/protocol"
	"github.com/antoniostano/tripgenie/internal/reliability"
	"github.com/antoniostano/tripgenie/internal/results"
	"github.com/antoniostano/tripgenie/internal/session"
)

const DefaultEndPhrase = "end_session"

var (
	errNoGeocodeMatch  = fmt.Errorf("geocoder: no match: %w", reliability.ErrNoResult)
	errMalformedLatLng = errors.New("geocoder: malformed lat,lng")
	errNoAddress       = fmt.Errorf("geocoder: no address: %w", reliability.ErrNoResult)
)

// Options configures a Router. Sessions and the five collaborators are
// required; everything else has a default.
type Options struct {
	Sessions  *session.Manager
	Pending   *confirm.Registry
	Tracker   *results.Tracker
	Catalog   *places.Catalog
	Resolver  nlp.Resolver
	Geocoder  geo.Geocoder
	Places    places.Provider
	Itinerary itinerary.Generator

	// ItineraryDays is only used in reply text.
	ItineraryDays    int
	ItineraryTimeout time.Duration
	EndPhrases       []string

	Metrics *observability.Metrics
	Audit   *audit.Recorder
}

// Router is the dialogue state machine. It is safe for concurrent use;
// events for the same sender are serialized.
type Router struct {
	sessions  *session.Manager
	pending   *confirm.Registry
	tracker   *results.Tracker
	catalog   *places.Catalog
	resolver  nlp.Resolver
	geocoder  geo.Geocoder
	places    places.Provider
	itinerary itinerary.Generator

	days             int
	itineraryTimeout time.Duration
	endPhrases       map[string]struct{}
	endPhrase        string

	metrics *observability.Metrics
	audit   *audit.Recorder
}

// NewRouter validates opts, fills defaults, and registers the session start
// and expiry hooks on opts.Sessions.
func NewRouter(opts Options) (*Router, error) {
	switch {
	case opts.Sessions == nil:
		return nil, errors.New("dialogue: session manager is required")
	case opts.Resolver == nil:
		return nil, errors.New("dialogue: resolver is required")
	case opts.Geocoder == nil:
		return nil, errors.New("dialogue: geocoder is required")
	case opts.Places == nil:
		return nil, errors.New("dialogue: place provider is required")
	case opts.Itinerary == nil:
		return nil, errors.New("dialogue: itinerary generator is required")
	}

	r := &Router{
		sessions:         opts.Sessions,
		pending:          opts.Pending,
		tracker:          opts.Tracker,
		catalog:          opts.Catalog,
		resolver:         opts.Resolver,
		geocoder:         opts.Geocoder,
		places:           opts.Places,
		itinerary:        opts.Itinerary,
		days:             opts.ItineraryDays,
		itineraryTimeout: opts.ItineraryTimeout,
		endPhrases:       make(map[string]struct{}),
		metrics:          opts.Metrics,
		audit:            opts.Audit,
	}
	if r.pending == nil {
		r.pending = confirm.NewRegistry()
	}
	if r.tracker == nil {
		r.tracker = results.NewTracker(results.DefaultPageSize)
	}
	if r.catalog == nil {
		r.catalog = places.DefaultCatalog()
	}
	if r.days <= 0 {
		r.days = itinerary.DefaultDays
	}
	if r.itineraryTimeout <= 0 {
		r.itineraryTimeout = itinerary.DefaultTimeout
	}
	for _, p := range opts.EndPhrases {
		p = normalizeCommand(p)
		if p == "" {
			continue
		}
		if r.endPhrase == "" {
			r.endPhrase = p
		}
		r.endPhrases[p] = struct{}{}
	}
	if r.endPhrase == "" {
		r.endPhrase = DefaultEndPhrase
		r.endPhrases[DefaultEndPhrase] = struct{}{}
	}

	r.sessions.SetStartHook(r.onStart)
	r.sessions.SetExpireHook(r.onExpire)
	return r, nil
}

func (r *Router) Sessions() *session.Manager { return r.sessions }

// Handle routes one inbound event and returns the reply text. It never
// fails; every path produces a reply.
func (r *Router) Handle(ctx context.Context, ev protocol.InboundEvent) string {
	return r.HandleReply(ctx, ev).Text
}

// HandleReply is Handle plus the outcome label of the reply.
func (r *Router) HandleReply(ctx context.Context, ev protocol.InboundEvent) Reply {
	started := time.Now()
	ev.Sender = strings.TrimSpace(ev.Sender)

	unlock := r.sessions.Lock(ev.Sender)
	defer unlock()

	out := r.route(ctx, ev)

	r.metrics.Reply(out.Outcome)
	r.metrics.SetActiveSessions(r.sessions.ActiveCount())
	r.metrics.ObserveRoute(time.Since(started))
	r.recordTurn(ctx, ev, out)
	return out
}

func (r *Router) route(ctx context.Context, ev protocol.InboundEvent) Reply {
	text := strings.TrimSpace(ev.Message)
	cmd := normalizeCommand(text)
	sender := ev.Sender

	if _, ok := r.endPhrases[cmd]; ok && cmd != "" {
		if _, existed := r.sessions.End(sender); existed {
			r.metrics.SessionEvent("ended")
			log.Printf("router: session ended sender=%s", sender)
		}
		r.pending.Clear(sender)
		return reply(OutcomeEnded, ReplySessionEnded)
	}

	if cmd == "start" {
		if _, created := r.sessions.Start(sender); !created {
			return reply(OutcomeAlreadyActive, ReplyAlreadyActive, r.endPhrase)
		}
		return reply(OutcomeWelcome, ReplyWelcome, r.days)
	}

	if r.sessions.IsExpired(sender, r.sessions.Now()) {
		r.sessions.Expire(sender)
		r.pending.Clear(sender)
		return reply(OutcomeExpired, ReplyExpired)
	}

	s, err := r.sessions.Get(sender)
	if err != nil {
		return reply(OutcomeNoSession, ReplyPleaseStart)
	}
	r.sessions.Touch(sender)

	t := &turn{ev: ev, text: text, cmd: cmd, s: s}
	if p, ok := r.pending.Get(sender); ok {
		return r.confirmation(ctx, t, p)
	}

	kind := classify(ev, cmd)
	r.metrics.RoutedEvent(string(s.Stage), string(kind))
	h := lookup(s.Stage, kind)
	if h == nil {
		log.Printf("router: no handler for stage=%s sender=%s", s.Stage, sender)
		return reply(OutcomeNoSession, ReplyPleaseStart)
	}
	from := s.Stage
	out := h(r, ctx, t)
	if t.s.Stage != from {
		r.metrics.Transition(string(from), string(t.s.Stage))
	}
	return out
}

// save writes back the turn's session copy. The sender lock is held, so a
// failure means the session vanished underneath us, which is only logged.
func (r *Router) save(s *session.Session) {
	if err := r.sessions.Save(s); err != nil {
		log.Printf("router: save session sender=%s: %v", s.Sender, err)
	}
}

func (r *Router) confirmation(ctx context.Context, t *turn, p confirm.Pending) Reply {
	if t.ev.HasCoordinates() {
		return reply(OutcomeConfirmReprompt, ReplyYesNoOnly)
	}
	switch t.cmd {
	case "yes", "y":
		r.pending.Take(t.s.Sender)
		latlng, ok := r.forward(ctx, p.Location)
		if !ok {
			return reply(OutcomeConfirmFailed, ReplyLocationNotConfirm)
		}
		from := t.s.Stage
		t.s.Stage = session.StageAwaitingQuery
		t.s.Mode = session.ModePlaces
		t.s.Location = latlng
		r.save(t.s)
		r.metrics.Transition(string(from), string(t.s.Stage))
		return reply(OutcomeConfirmed, ReplyLocationConfirmed)
	case "no", "n":
		r.pending.Take(t.s.Sender)
		if t.s.Location == "" {
			return reply(OutcomeDeclined, ReplyNoPreviousLocation)
		}
		return reply(OutcomeDeclined, ReplyKeepPrevious)
	default:
		return reply(OutcomeConfirmReprompt, ReplyYesNoOnly)
	}
}

func (r *Router) choosePlaces(_ context.Context, t *turn) Reply {
	t.s.Stage = session.StageAwaitingLocation
	t.s.Mode = session.ModePlaces
	r.save(t.s)
	return reply(OutcomeModeSelected, ReplyShareLocation)
}

func (r *Router) chooseItinerary(_ context.Context, t *turn) Reply {
	t.s.Stage = session.StageAwaitingItineraryLocation
	t.s.Mode = session.ModeItinerary
	r.save(t.s)
	return reply(OutcomeModeSelected, ReplyItineraryPrompt)
}

func (r *Router) modeSelectionCoordinates(_ context.Context, _ *turn) Reply {
	return reply(OutcomeReprompt, ReplySelectOptionFirst)
}

func (r *Router) modeSelectionText(_ context.Context, _ *turn) Reply {
	return reply(OutcomeReprompt, ReplySelectOption, r.days)
}

// locationCoordinates sets the search center. The shown-names ledger and
// last search survive a location change.
func (r *Router) locationCoordinates(_ context.Context, t *turn) Reply {
	t.s.Location = geo.FormatLatLng(*t.ev.Latitude, *t.ev.Longitude)
	t.s.Stage = session.StageAwaitingQuery
	t.s.Mode = session.ModePlaces
	r.save(t.s)
	return reply(OutcomeLocationSet, ReplyLocationReceived)
}

func (r *Router) locationText(ctx context.Context, t *turn) Reply {
	if strings.Contains(t.cmd, "itinerary") {
		return reply(OutcomeItineraryRedirect, ReplyItineraryRedirect, r.endPhrase)
	}
	if t.text == "" {
		return reply(OutcomeReprompt, ReplyNoLocationYet)
	}
	a := r.analyze(ctx, t.text)
	if a.Location != "" {
		return r.proposeLocation(t, a)
	}
	latlng, ok := r.forward(ctx, t.text)
	if !ok {
		return reply(OutcomeLocationNotFound, ReplyLocationNotFound)
	}
	t.s.Location = latlng
	t.s.Stage = session.StageAwaitingQuery
	t.s.Mode = session.ModePlaces
	r.save(t.s)
	return reply(OutcomeLocationSet, ReplyLocationResolved, t.text)
}

func (r *Router) proposeLocation(t *turn, a nlp.Analysis) Reply {
	r.pending.Put(t.s.Sender, confirm.Pending{
		Intent:        a.Intent,
		Location:      a.Location,
		OriginalQuery: t.text,
	})
	return reply(OutcomeConfirmPrompt, ReplyConfirmLocation, a.Location)
}

func (r *Router) itineraryText(ctx context.Context, t *turn) Reply {
	if t.text == "" || strings.IndexFunc(t.text, unicode.IsDigit) >= 0 {
		return reply(OutcomeReprompt, ReplyItineraryInvalid)
	}
	return r.planItinerary(ctx, t, t.text)
}

func (r *Router) itineraryCoordinates(ctx context.Context, t *turn) Reply {
	place := r.reverse(ctx, *t.ev.Latitude, *t.ev.Longitude)
	return r.planItinerary(ctx, t, place)
}

// planItinerary always moves the session to place search, whether or not
// generation succeeded.
func (r *Router) planItinerary(ctx context.Context, t *turn, place string) Reply {
	text := r.generate(ctx, place)
	t.s.Stage = session.StageAwaitingLocation
	t.s.Mode = session.ModePlaces
	r.save(t.s)

	outcome := OutcomeItinerary
	if text == itinerary.FallbackText {
		outcome = OutcomeItineraryFallback
	}
	return reply(outcome, ReplyItinerary, r.days, place, text)
}

func (r *Router) queryText(ctx context.Context, t *turn) Reply {
	if strings.Contains(t.cmd, "itinerary") {
		return reply(OutcomeItineraryRedirect, ReplyItineraryRedirect, r.endPhrase)
	}
	a := r.analyze(ctx, t.text)
	if a.Location != "" {
		return r.proposeLocation(t, a)
	}
	if !r.catalog.Recognized(a.Intent) {
		return reply(OutcomeNotUnderstood, ReplyNotUnderstood)
	}
	return r.search(ctx, t.s, a.Intent, t.text)
}

// more re-runs the last search. Without prior results it is plain text.
func (r *Router) more(ctx context.Context, t *turn) Reply {
	if t.s.Mode != session.ModePlaces || !t.s.HasResults {
		return r.queryText(ctx, t)
	}
	return r.search(ctx, t.s, t.s.LastIntent, t.s.LastQuery)
}

func (r *Router) search(ctx context.Context, s *session.Session, intent, query string) Reply {
	lat, lng, err := geo.ParseLatLng(s.Location)
	if err != nil {
		return reply(OutcomeInvalidLocation, ReplyInvalidLocation)
	}
	q := r.catalog.Plan(intent, query, lat, lng)

	started := time.Now()
	candidates, err := r.places.Search(ctx, q)
	r.metrics.ObserveCollaborator(observability.CollaboratorPlaces, time.Since(started), err)
	if err != nil {
		log.Printf("router: place search failed sender=%s intent=%s: %v", s.Sender, intent, err)
		return reply(OutcomeSearchFailed, ReplySearchFailed)
	}

	label := r.catalog.Label(intent)
	page := r.tracker.Select(candidates, s.ShownNames)
	if len(page) == 0 {
		return reply(OutcomeEmptyPage, ReplyNoResults, label)
	}

	stored := intent
	if q.Mode == places.SearchText {
		stored = q.Text
	}
	r.tracker.Record(s, page, intent, stored, s.Location)
	r.save(s)
	return Reply{Text: FormatResults(label, page, r.endPhrase), Outcome: OutcomePlaces}
}

func (r *Router) analyze(ctx context.Context, text string) nlp.Analysis {
	started := time.Now()
	a := r.resolver.Analyze(ctx, text)
	// Resolver failures are reported by the pipeline's OnError hook; a
	// degraded analysis still counts as a completed call here.
	r.metrics.ObserveCollaborator(observability.CollaboratorResolver, time.Since(started), nil)
	if a.Intent == "" {
		a.Intent = nlp.UnknownIntent
	}
	return a
}

func (r *Router) forward(ctx context.Context, name string) (string, bool) {
	started := time.Now()
	latlng, ok := r.geocoder.Forward(ctx, name)
	elapsed := time.Since(started)
	if !ok {
		r.metrics.ObserveCollaborator(observability.CollaboratorGeocoder, elapsed, errNoGeocodeMatch)
		return "", false
	}
	if _, _, err := geo.ParseLatLng(latlng); err != nil {
		log.Printf("router: geocoder returned malformed location %q", latlng)
		r.metrics.ObserveCollaborator(observability.CollaboratorGeocoder, elapsed, errMalformedLatLng)
		return "", false
	}
	r.metrics.ObserveCollaborator(observability.CollaboratorGeocoder, elapsed, nil)
	return latlng, true
}

func (r *Router) reverse(ctx context.Context, lat, lng float64) string {
	started := time.Now()
	name := r.geocoder.Reverse(ctx, lat, lng)
	if strings.TrimSpace(name) == "" || name == geo.FallbackPlaceName {
		r.metrics.ObserveCollaborator(observability.CollaboratorGeocoder, time.Since(started), errNoAddress)
		return geo.FallbackPlaceName
	}
	r.metrics.ObserveCollaborator(observability.CollaboratorGeocoder, time.Since(started), nil)
	return name
}

// generate bounds the itinerary call regardless of whether the generator
// honors its context.
func (r *Router) generate(ctx context.Context, place string) string {
	ctx, cancel := context.WithTimeout(ctx, r.itineraryTimeout)
	defer cancel()

	started := time.Now()
	done := make(chan string, 1)
	go func() {
		done <- r.itinerary.Generate(ctx, place)
	}()

	select {
	case text := <-done:
		r.metrics.ObserveCollaborator(observability.CollaboratorItinerary, time.Since(started), nil)
		if strings.TrimSpace(text) == "" {
			return itinerary.FallbackText
		}
		return text
	case <-ctx.Done():
		err := fmt.Errorf("itinerary for %q: %w", place, ctx.Err())
		r.metrics.ObserveCollaborator(observability.CollaboratorItinerary, time.Since(started), err)
		log.Printf("router: %v", err)
		return itinerary.FallbackText
	}
}

func (r *Router) onStart(s *session.Session) {
	r.metrics.SessionEvent("started")
	r.audit.Start(context.Background(), s.Sender, s.StartedAt)
	log.Printf("router: session started sender=%s session_id=%s", s.Sender, s.ID)
}

// onExpire runs for idle teardown from both the router and the janitor.
func (r *Router) onExpire(s *session.Session) {
	r.pending.Clear(s.Sender)
	r.metrics.SessionEvent("expired")
	r.metrics.SetActiveSessions(r.sessions.ActiveCount())
	log.Printf("router: session expired sender=%s session_id=%s", s.Sender, s.ID)
}

func (r *Router) recordTurn(ctx context.Context, ev protocol.InboundEvent, out Reply) {
	if r.audit == nil {
		return
	}
	var sessionID, stage string
	if s, err := r.sessions.Get(ev.Sender); err == nil {
		sessionID, stage = s.ID, string(s.Stage)
	}
	inbound := ev.Message
	if ev.HasCoordinates() {
		inbound = strings.TrimSpace("@" + geo.FormatLatLng(*ev.Latitude, *ev.Longitude) + " " + ev.Message)
	}
	r.audit.Turn(ctx, ev.Sender, sessionID, stage, audit.RoleUser, inbound)
	r.audit.Turn(ctx, ev.Sender, sessionID, stage, audit.RoleAssistant, out.Text)
}
