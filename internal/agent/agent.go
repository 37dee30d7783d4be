package agent

import (
	"context"
	"errors"
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"musiccrs/internal/catalog"
	"musiccrs/internal/dialog"
	"musiccrs/internal/logging"
	"musiccrs/internal/metrics"
	"musiccrs/internal/playlist"
	"musiccrs/internal/popularity"
	"musiccrs/internal/qa"
	"musiccrs/internal/resolver"
)

// Reply is the agent's response to one utterance: an HTML fragment for
// the chat transcript plus a snapshot of the session's current playlist.
type Reply struct {
	HTML     string            `json:"html"`
	Playlist playlist.Playlist `json:"playlist"`
}

// Agent dispatches user utterances to commands, question answering, and
// the disambiguation state machine. One utterance per session is handled
// at a time; different sessions never contend.
type Agent struct {
	catalog      *catalog.Catalog
	engine       *resolver.Engine
	playlists    *playlist.Store
	pending      *dialog.Store
	qa           *qa.Service
	details      popularity.DetailsProvider
	displayLimit int

	mu        sync.Mutex
	sessionMu map[string]*sync.Mutex
}

// New wires up an Agent. details may be nil when no streaming service is
// configured; playback commands then explain they are unavailable.
// displayLimit caps how many candidates a disambiguation prompt shows.
func New(cat *catalog.Catalog, engine *resolver.Engine, playlists *playlist.Store, qaService *qa.Service, details popularity.DetailsProvider, displayLimit int) *Agent {
	if displayLimit < 1 {
		displayLimit = 10
	}
	return &Agent{
		catalog:      cat,
		engine:       engine,
		playlists:    playlists,
		pending:      dialog.NewStore(),
		qa:           qaService,
		details:      details,
		displayLimit: displayLimit,
		sessionMu:    make(map[string]*sync.Mutex),
	}
}

func (a *Agent) sessionLock(session string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	mu, ok := a.sessionMu[session]
	if !ok {
		mu = &sync.Mutex{}
		a.sessionMu[session] = mu
	}
	return mu
}

// HandleUtterance processes one utterance for the session and returns
// the reply. Digits-only input is routed to the pending selection before
// any command matching; any other input while a selection is pending
// abandons it.
func (a *Agent) HandleUtterance(ctx context.Context, session, text string) Reply {
	mu := a.sessionLock(session)
	mu.Lock()
	defer mu.Unlock()

	text = strings.TrimSpace(text)

	var out string
	switch {
	case text == "":
		out = "Say something! Try <b>/help</b> to see what I can do."
	case isDigits(text):
		out = a.handleSelection(ctx, session, text)
	default:
		if a.pending.Has(session) {
			// Any non-numeric utterance abandons the pending selection
			// and is processed as an ordinary command.
			a.pending.Clear(session)
			logging.Debug("Session %s abandoned pending selection", session)
		}
		out = a.dispatch(ctx, session, text)
	}

	return Reply{HTML: out, Playlist: a.playlists.Current(session)}
}

func (a *Agent) dispatch(ctx context.Context, session, text string) string {
	command, arg := splitCommand(text)
	metrics.UtterancesTotal.WithLabelValues(metricLabel(command)).Inc()

	switch command {
	case "/add":
		return a.handleAdd(ctx, session, arg)
	case "/remove":
		return a.handleRemove(session, arg)
	case "/view":
		return a.handleView(session)
	case "/clear":
		return a.handleClear(session, arg)
	case "/create":
		return a.handleCreate(session, arg)
	case "/switch":
		return a.handleSwitch(session, arg)
	case "/list":
		return a.handleList(session)
	case "/ask":
		return a.handleAsk(ctx, session, arg)
	case "/play":
		return a.handlePlay(ctx, session, arg)
	case "/preview":
		return a.handlePreview(ctx, arg)
	case "/stats":
		return a.handleStats(ctx, session)
	case "/help":
		return helpText
	default:
		if strings.HasPrefix(command, "/") {
			return fmt.Sprintf("I don't know the command <b>%s</b>. Try <b>/help</b>.", html.EscapeString(command))
		}
		return a.handleFreeform(ctx, session, text)
	}
}

func splitCommand(text string) (string, string) {
	if !strings.HasPrefix(text, "/") {
		return text, ""
	}
	parts := strings.SplitN(text, " ", 2)
	command := strings.ToLower(parts[0])
	arg := ""
	if len(parts) == 2 {
		arg = strings.TrimSpace(parts[1])
	}
	return command, arg
}

// knownCommands keeps the utterance metric label low-cardinality.
var knownCommands = map[string]bool{
	"/add": true, "/remove": true, "/view": true, "/clear": true,
	"/create": true, "/switch": true, "/list": true, "/ask": true,
	"/play": true, "/preview": true, "/stats": true, "/help": true,
}

func metricLabel(command string) string {
	if knownCommands[command] {
		return command
	}
	if strings.HasPrefix(command, "/") {
		return "unknown"
	}
	return "freeform"
}

// handleFreeform routes non-command text: questions the QA templates
// recognize get answered, everything else gets a gentle nudge.
func (a *Agent) handleFreeform(ctx context.Context, session, text string) string {
	if answer := a.handleAsk(ctx, session, text); answer != unmatchedQuestion {
		return answer
	}
	return "I'm not sure what you mean. Try <b>/add artist: title</b>, or <b>/help</b> for everything I understand."
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// handleSelection feeds a digits-only utterance to the pending
// selection. Out-of-range numbers clear the slot too, so the user can
// always start over.
func (a *Agent) handleSelection(ctx context.Context, session, text string) string {
	choice, err := strconv.Atoi(text)
	if err != nil {
		choice = -1
	}

	p, track, err := a.pending.Take(session, choice)
	switch {
	case errors.Is(err, dialog.ErrNoPendingSelection):
		return "There's nothing to pick from right now. Try <b>/add</b> or <b>/ask</b> first."
	case errors.Is(err, dialog.ErrIndexOutOfRange):
		return fmt.Sprintf("Please pick a number between 1 and %d. That selection is gone now, so start over if you still want it.", len(p.Candidates))
	case err != nil:
		logging.Error("Selection failed for session %s: %v", session, err)
		return "Something went wrong applying your selection."
	}

	switch p.Kind {
	case dialog.KindAddTrack:
		added := a.playlists.AddResolved(session, *track)
		return addedMessage(added, a.playlists.CurrentName(session))
	case dialog.KindAnswerQuestion:
		answer, err := a.qa.FormatAnswer(ctx, p.Context["template"], *track)
		if err != nil {
			logging.Error("Failed to format answer for session %s: %v", session, err)
			return "Something went wrong answering your question."
		}
		return answer
	default:
		logging.Error("Unknown pending kind %q for session %s", p.Kind, session)
		return "Something went wrong applying your selection."
	}
}

func (a *Agent) handleAdd(ctx context.Context, session, arg string) string {
	if arg == "" {
		return "Usage: <b>/add artist: title</b> (also <b>title by artist</b>, <b>artist - title</b>, or just a title)."
	}

	res, err := a.engine.ResolveForAdd(ctx, arg, a.playlists.ExistingArtists(session))
	if errors.Is(err, resolver.ErrInvalidReference) {
		return "I couldn't parse that track reference. Try <b>/add artist: title</b>."
	}
	if err != nil {
		logging.Error("Resolution failed for session %s: %v", session, err)
		return "Something went wrong searching the catalog."
	}

	switch res.Outcome {
	case resolver.OutcomeUnique:
		added := a.playlists.AddResolved(session, *res.Track)
		return addedMessage(added, a.playlists.CurrentName(session))

	case resolver.OutcomeEmpty:
		return a.notFoundMessage(ctx, arg)

	default:
		a.pending.Put(session, dialog.Pending{
			Kind:       dialog.KindAddTrack,
			Candidates: res.Candidates,
			Total:      res.Total,
		})
		return a.candidatePrompt("I found several matches. Which one do you want to add?", res)
	}
}

// notFoundMessage suggests close titles when a reference matched
// nothing, using edit distance over catalog titles.
func (a *Agent) notFoundMessage(ctx context.Context, arg string) string {
	msg := fmt.Sprintf("I couldn't find <b>%s</b> in the catalog.", html.EscapeString(arg))

	ref, err := resolver.ParseReference(arg)
	if err != nil {
		return msg
	}
	suggestions, err := a.catalog.SuggestTitles(ctx, ref.Title, 3)
	if err != nil || len(suggestions) == 0 {
		return msg
	}

	escaped := make([]string, len(suggestions))
	for i, s := range suggestions {
		escaped[i] = "<b>" + html.EscapeString(s) + "</b>"
	}
	return msg + " Did you mean " + strings.Join(escaped, ", ") + "?"
}

func (a *Agent) handleRemove(session, arg string) string {
	if arg == "" {
		return "Usage: <b>/remove position</b> or <b>/remove track-id</b>."
	}

	removed, err := a.playlists.Remove(session, arg)
	switch {
	case errors.Is(err, playlist.ErrIndexOutOfRange):
		return "That position isn't on the playlist. Use <b>/view</b> to see the numbers."
	case errors.Is(err, playlist.ErrNotInPlaylist):
		return "That track isn't on the playlist."
	case err != nil:
		logging.Error("Remove failed for session %s: %v", session, err)
		return "Something went wrong removing the track."
	}
	return fmt.Sprintf("Removed <b>%s</b> by <b>%s</b> from <b>%s</b>.",
		html.EscapeString(removed.Title), html.EscapeString(removed.Artist),
		html.EscapeString(a.playlists.CurrentName(session)))
}

func (a *Agent) handleView(session string) string {
	pl := a.playlists.Current(session)
	if len(pl.Tracks) == 0 {
		return fmt.Sprintf("<b>%s</b> is empty. Add something with <b>/add</b>!", html.EscapeString(pl.Name))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b> (%d tracks):<br>", html.EscapeString(pl.Name), len(pl.Tracks))
	for i, t := range pl.Tracks {
		fmt.Fprintf(&b, "%d. %s<br>", i+1, html.EscapeString(t.Label()))
	}
	return b.String()
}

func (a *Agent) handleClear(session, arg string) string {
	if err := a.playlists.Clear(session, arg); errors.Is(err, playlist.ErrPlaylistNotFound) {
		return fmt.Sprintf("There's no playlist called <b>%s</b>.", html.EscapeString(arg))
	}
	name := arg
	if name == "" {
		name = a.playlists.CurrentName(session)
	}
	return fmt.Sprintf("Cleared <b>%s</b>.", html.EscapeString(name))
}

func (a *Agent) handleCreate(session, arg string) string {
	if arg == "" {
		return "Usage: <b>/create name</b>."
	}
	if err := a.playlists.Create(session, arg); errors.Is(err, playlist.ErrAlreadyExists) {
		return fmt.Sprintf("You already have a playlist called <b>%s</b>.", html.EscapeString(arg))
	}
	return fmt.Sprintf("Created <b>%s</b> and made it your current playlist.", html.EscapeString(arg))
}

func (a *Agent) handleSwitch(session, arg string) string {
	if arg == "" {
		return "Usage: <b>/switch name</b>."
	}
	if err := a.playlists.Switch(session, arg); errors.Is(err, playlist.ErrPlaylistNotFound) {
		return fmt.Sprintf("There's no playlist called <b>%s</b>. Use <b>/list</b> to see them.", html.EscapeString(arg))
	}
	return fmt.Sprintf("Switched to <b>%s</b>.", html.EscapeString(arg))
}

func (a *Agent) handleList(session string) string {
	names := a.playlists.Names(session)
	current := a.playlists.CurrentName(session)

	var b strings.Builder
	b.WriteString("Your playlists:<br>")
	for _, name := range names {
		marker := ""
		if name == current {
			marker = " (current)"
		}
		fmt.Fprintf(&b, "- <b>%s</b>%s<br>", html.EscapeString(name), marker)
	}
	return b.String()
}

// handlePlay links a playlist track to Spotify. Without an argument it
// lists the playlist with a usage hint; with a 1-based position it
// renders the playback card for that track.
func (a *Agent) handlePlay(ctx context.Context, session, arg string) string {
	pl := a.playlists.Current(session)
	if len(pl.Tracks) == 0 {
		return "Your playlist is empty. Add some tracks first!"
	}

	if arg == "" {
		var b strings.Builder
		fmt.Fprintf(&b, "<b>%s</b> tracks:<br>", html.EscapeString(pl.Name))
		for i, t := range pl.Tracks {
			fmt.Fprintf(&b, "%d. %s<br>", i+1, html.EscapeString(t.Label()))
		}
		b.WriteString("Use <b>/play number</b> to get the Spotify link for a track.")
		return b.String()
	}

	pos, err := strconv.Atoi(arg)
	if err != nil || pos < 1 || pos > len(pl.Tracks) {
		return fmt.Sprintf("Please pick a track number between 1 and %d.", len(pl.Tracks))
	}

	track := pl.Tracks[pos-1]
	return a.playbackCard(ctx, track.Artist, track.Title)
}

// handlePreview looks a track reference up on Spotify directly, without
// touching the playlist or the catalog.
func (a *Agent) handlePreview(ctx context.Context, arg string) string {
	if arg == "" {
		return "Usage: <b>/preview artist: title</b> (or just a title)."
	}

	ref, err := resolver.ParseReference(arg)
	if err != nil {
		return "I couldn't parse that track reference. Try <b>/preview artist: title</b>."
	}
	return a.playbackCard(ctx, ref.Artist, ref.Title)
}

// playbackCard renders the Spotify link, popularity, duration, and embed
// player for a track.
func (a *Agent) playbackCard(ctx context.Context, artist, title string) string {
	if a.details == nil {
		return "Spotify playback isn't configured."
	}

	details, err := a.details.TrackDetails(ctx, artist, title)
	if err != nil {
		logging.Error("Track details lookup failed for %q / %q: %v", artist, title, err)
		return "Something went wrong talking to Spotify."
	}
	if details == nil || details.URL == "" {
		return fmt.Sprintf("I couldn't find <b>%s</b> on Spotify.", html.EscapeString(title))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b> by <b>%s</b><br>",
		html.EscapeString(details.Title), html.EscapeString(details.Artist))
	fmt.Fprintf(&b, "<a href=%q target=\"_blank\">Play on Spotify</a><br>", details.URL)
	fmt.Fprintf(&b, "Popularity: %d/100<br>", details.Popularity)
	fmt.Fprintf(&b, "Duration: %s<br>", formatDuration(details.Duration))
	if details.EmbedID != "" {
		fmt.Fprintf(&b, `<iframe src="https://open.spotify.com/embed/track/%s" width="100%%" height="152" frameborder="0" loading="lazy" allow="autoplay; encrypted-media"></iframe>`,
			details.EmbedID)
	}
	return b.String()
}

func formatDuration(d time.Duration) string {
	total := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

const unmatchedQuestion = "I don't know how to answer that one. Try <b>/help</b> to see the kinds of questions I understand."

func (a *Agent) handleAsk(ctx context.Context, session, arg string) string {
	if arg == "" {
		return "Usage: <b>/ask question</b>, for example <b>/ask who sings Africa?</b>"
	}

	res, matched, err := a.qa.Answer(ctx, arg)
	if err != nil {
		logging.Error("Question answering failed for session %s: %v", session, err)
		return "Something went wrong answering your question."
	}
	if !matched {
		return unmatchedQuestion
	}

	if res.Pending != nil {
		a.pending.Put(session, dialog.Pending{
			Kind:       dialog.KindAnswerQuestion,
			Candidates: res.Pending.Resolution.Candidates,
			Total:      res.Pending.Resolution.Total,
			Context:    map[string]string{"template": res.Pending.Template},
		})
		return a.candidatePrompt("I found several tracks with that name. Which one do you mean?", res.Pending.Resolution)
	}
	return res.Text
}

func (a *Agent) handleStats(ctx context.Context, session string) string {
	stats, err := a.catalog.Stats(ctx)
	if err != nil {
		logging.Error("Stats query failed: %v", err)
		return "Something went wrong reading the catalog."
	}
	msg := fmt.Sprintf("The catalog holds <b>%d</b> tracks by <b>%d</b> artists across <b>%d</b> albums.",
		stats.TotalTracks, stats.TotalArtists, stats.TotalAlbums)

	if top := topPlaylistArtists(a.playlists.Current(session).Tracks, 3); len(top) != 0 {
		escaped := make([]string, len(top))
		for i, artist := range top {
			escaped[i] = "<b>" + html.EscapeString(artist) + "</b>"
		}
		msg += " Your playlist leans on " + strings.Join(escaped, ", ") + "."
	}
	return msg
}

// topPlaylistArtists returns the most frequent artists on the playlist,
// ties broken alphabetically.
func topPlaylistArtists(tracks []catalog.Track, limit int) []string {
	counts := make(map[string]int)
	for _, t := range tracks {
		counts[t.Artist]++
	}
	artists := make([]string, 0, len(counts))
	for artist := range counts {
		artists = append(artists, artist)
	}
	sort.Slice(artists, func(i, j int) bool {
		if counts[artists[i]] != counts[artists[j]] {
			return counts[artists[i]] > counts[artists[j]]
		}
		return artists[i] < artists[j]
	})
	if len(artists) > limit {
		artists = artists[:limit]
	}
	return artists
}

// candidatePrompt renders a numbered candidate list, capped for display
// but reporting the true total.
func (a *Agent) candidatePrompt(lead string, res resolver.Resolution) string {
	shown := res.Candidates
	if len(shown) > a.displayLimit {
		shown = shown[:a.displayLimit]
	}

	var b strings.Builder
	b.WriteString(lead)
	if res.Total > len(shown) {
		fmt.Fprintf(&b, " (showing first %d of %d)", len(shown), res.Total)
	}
	b.WriteString("<br>")
	for i, t := range shown {
		fmt.Fprintf(&b, "%d. %s<br>", i+1, html.EscapeString(t.Label()))
	}
	b.WriteString("Type a number to choose.")
	return b.String()
}

func addedMessage(track catalog.Track, playlistName string) string {
	return fmt.Sprintf("Added <b>%s</b> by <b>%s</b> to <b>%s</b>.",
		html.EscapeString(track.Title), html.EscapeString(track.Artist), html.EscapeString(playlistName))
}

const helpText = `Here's what I can do:<br>
<b>/add artist: title</b> - add a track (also "title by artist", "artist - title", or just a title)<br>
<b>/remove position-or-id</b> - remove a track from the current playlist<br>
<b>/view</b> - show the current playlist<br>
<b>/clear [name]</b> - empty a playlist<br>
<b>/create name</b> - create a playlist and switch to it<br>
<b>/switch name</b> - change the current playlist<br>
<b>/list</b> - list your playlists<br>
<b>/ask question</b> - ask about tracks and artists, e.g. "who sings Africa?"<br>
<b>/play [number]</b> - get the Spotify link and player for a playlist track<br>
<b>/preview artist: title</b> - look a track up on Spotify without adding it<br>
<b>/stats</b> - catalog statistics<br>
When I list numbered matches, just type the number to pick one.`
