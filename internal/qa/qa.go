package qa

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"

	"musiccrs/internal/catalog"
	"musiccrs/internal/resolver"
)

// Template names, stored in disambiguation context so an interrupted
// question can resume with the selected track.
const (
	TemplateTrackAlbum  = "track_album"
	TemplateTrackArtist = "track_artist"
	TemplateTrackExists = "track_exists"
	TemplateTrackInfo   = "track_info"
)

// Result is the outcome of answering a question. Either Text is set, or
// Pending carries an ambiguous resolution the caller must disambiguate
// before the answer can be produced.
type Result struct {
	Text    string
	Pending *PendingQuestion
}

// PendingQuestion is an ambiguous track resolution plus the template
// needed to finish answering once a candidate is chosen.
type PendingQuestion struct {
	Template   string
	Resolution resolver.Resolution
}

type trackTemplate struct {
	name string
	re   *regexp.Regexp
}

// Track question templates. Each captures one track reference, which is
// parsed with the same structural matchers as the add command so
// "what album is Africa by Toto on" splits correctly.
var trackTemplates = []trackTemplate{
	{TemplateTrackAlbum, regexp.MustCompile(`(?i)^(?:what|which) album (?:is|has|features) (.+?)(?: (?:on|from))?\??$`)},
	{TemplateTrackArtist, regexp.MustCompile(`(?i)^who (?:sings|sang|performs|performed|plays) (.+?)\??$`)},
	{TemplateTrackExists, regexp.MustCompile(`(?i)^(?:do you have|do you know|is there) (?:a )?(?:song|track)?(?: called)? ?(.+?)\??$`)},
	{TemplateTrackInfo, regexp.MustCompile(`(?i)^tell me about (.+?)\??$`)},
}

// Artist question patterns, answered directly from artist-scoped
// catalog queries with no disambiguation step.
var (
	artistTrackCountRe = regexp.MustCompile(`(?i)^how many (?:songs|tracks) (?:does|do|did) (.+?) have\??$`)
	artistAlbumsRe     = regexp.MustCompile(`(?i)^(?:what|which) albums (?:does|do|did) (.+?) have\??$`)
	artistTopTracksRe  = regexp.MustCompile(`(?i)^what are the (?:top|best|most popular) (?:songs|tracks) (?:by|of|from) (.+?)\??$`)
	artistSimilarRe    = regexp.MustCompile(`(?i)^(?:who|what artists?) (?:is|are) similar to (.+?)\??$`)
)

const topTrackCount = 5

// Service answers natural-language questions about the catalog.
type Service struct {
	catalog *catalog.Catalog
	engine  *resolver.Engine
}

// New creates a question-answering Service.
func New(cat *catalog.Catalog, engine *resolver.Engine) *Service {
	return &Service{catalog: cat, engine: engine}
}

// Answer matches the question against the known templates. The second
// return value reports whether any template matched at all.
func (s *Service) Answer(ctx context.Context, question string) (Result, bool, error) {
	question = strings.TrimSpace(question)

	if m := artistTrackCountRe.FindStringSubmatch(question); m != nil {
		res, err := s.answerTrackCount(ctx, m[1])
		return res, true, err
	}
	if m := artistAlbumsRe.FindStringSubmatch(question); m != nil {
		res, err := s.answerAlbums(ctx, m[1])
		return res, true, err
	}
	if m := artistTopTracksRe.FindStringSubmatch(question); m != nil {
		res, err := s.answerTopTracks(ctx, m[1])
		return res, true, err
	}
	if m := artistSimilarRe.FindStringSubmatch(question); m != nil {
		res, err := s.answerSimilar(ctx, m[1])
		return res, true, err
	}

	for _, tmpl := range trackTemplates {
		m := tmpl.re.FindStringSubmatch(question)
		if m == nil {
			continue
		}
		res, err := s.answerTrackQuestion(ctx, tmpl.name, m[1])
		return res, true, err
	}

	return Result{}, false, nil
}

func (s *Service) answerTrackQuestion(ctx context.Context, template, reference string) (Result, error) {
	ref, err := resolver.ParseReference(reference)
	if err != nil {
		return Result{Text: "I couldn't make out which track you mean."}, nil
	}

	resolution, err := s.engine.ResolveForQuestion(ctx, ref.Artist, ref.Title)
	if err != nil {
		return Result{}, err
	}

	switch resolution.Outcome {
	case resolver.OutcomeEmpty:
		return Result{Text: fmt.Sprintf("I couldn't find <b>%s</b> in the catalog.", html.EscapeString(ref.Title))}, nil
	case resolver.OutcomeUnique:
		text, err := s.FormatAnswer(ctx, template, *resolution.Track)
		return Result{Text: text}, err
	default:
		return Result{Pending: &PendingQuestion{Template: template, Resolution: resolution}}, nil
	}
}

// FormatAnswer produces the final answer text for a resolved track. It
// is also the continuation for disambiguated question selections.
func (s *Service) FormatAnswer(ctx context.Context, template string, track catalog.Track) (string, error) {
	artist := html.EscapeString(track.Artist)
	title := html.EscapeString(track.Title)

	switch template {
	case TemplateTrackAlbum:
		if track.Album == "" {
			return fmt.Sprintf("I don't have an album recorded for <b>%s</b> by <b>%s</b>.", title, artist), nil
		}
		return fmt.Sprintf("<b>%s</b> by <b>%s</b> appears on <b>%s</b>.", title, artist, html.EscapeString(track.Album)), nil

	case TemplateTrackArtist:
		return fmt.Sprintf("<b>%s</b> is performed by <b>%s</b>.", title, artist), nil

	case TemplateTrackExists:
		return fmt.Sprintf("Yes, <b>%s</b> by <b>%s</b> is in the catalog.", title, artist), nil

	case TemplateTrackInfo:
		occurrences, err := s.catalog.OccurrenceCount(ctx, track.ID)
		if err != nil {
			return "", err
		}
		answer := fmt.Sprintf("<b>%s</b> by <b>%s</b>", title, artist)
		if track.Album != "" {
			answer += fmt.Sprintf(", from the album <b>%s</b>", html.EscapeString(track.Album))
		}
		answer += fmt.Sprintf(". It appeared in %d source playlists.", occurrences)
		return answer, nil

	default:
		return "", fmt.Errorf("unknown question template %q", template)
	}
}

func (s *Service) answerTrackCount(ctx context.Context, artist string) (Result, error) {
	count, err := s.catalog.CountByArtist(ctx, artist)
	if err != nil {
		return Result{}, err
	}
	name := html.EscapeString(artist)
	if count == 0 {
		return Result{Text: fmt.Sprintf("I don't have any tracks by <b>%s</b>.", name)}, nil
	}
	return Result{Text: fmt.Sprintf("<b>%s</b> has %d tracks in the catalog.", name, count)}, nil
}

func (s *Service) answerAlbums(ctx context.Context, artist string) (Result, error) {
	albums, err := s.catalog.AlbumsByArtist(ctx, artist)
	if err != nil {
		return Result{}, err
	}
	name := html.EscapeString(artist)
	if len(albums) == 0 {
		return Result{Text: fmt.Sprintf("I don't have any albums recorded for <b>%s</b>.", name)}, nil
	}
	escaped := make([]string, len(albums))
	for i, a := range albums {
		escaped[i] = "<b>" + html.EscapeString(a) + "</b>"
	}
	return Result{Text: fmt.Sprintf("Albums by <b>%s</b>: %s.", name, strings.Join(escaped, ", "))}, nil
}

func (s *Service) answerTopTracks(ctx context.Context, artist string) (Result, error) {
	tracks, err := s.catalog.TopTracksByArtist(ctx, artist, topTrackCount)
	if err != nil {
		return Result{}, err
	}
	name := html.EscapeString(artist)
	if len(tracks) == 0 {
		return Result{Text: fmt.Sprintf("I don't have any tracks by <b>%s</b>.", name)}, nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Top tracks by <b>%s</b>:<br>", name)
	for i, t := range tracks {
		fmt.Fprintf(&b, "%d. %s<br>", i+1, html.EscapeString(t.Title))
	}
	return Result{Text: b.String()}, nil
}

func (s *Service) answerSimilar(ctx context.Context, artist string) (Result, error) {
	similar, err := s.catalog.SimilarArtists(ctx, artist, topTrackCount)
	if err != nil {
		return Result{}, err
	}
	name := html.EscapeString(artist)
	if len(similar) == 0 {
		return Result{Text: fmt.Sprintf("I couldn't find artists similar to <b>%s</b>.", name)}, nil
	}
	escaped := make([]string, len(similar))
	for i, a := range similar {
		escaped[i] = "<b>" + html.EscapeString(a) + "</b>"
	}
	return Result{Text: fmt.Sprintf("Artists similar to <b>%s</b>: %s.", name, strings.Join(escaped, ", "))}, nil
}
