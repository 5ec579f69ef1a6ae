package xtream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tabarek/iptvctl/cache"
	"github.com/tabarek/iptvctl/config"
	"github.com/tabarek/iptvctl/epg"
	"github.com/tabarek/iptvctl/store"
)

// guidePrefetchLimit bounds concurrent per-channel guide fetches.
const guidePrefetchLimit = 10

// Service is the high-level catalog API: every list/detail operation runs
// through the cache with its TTL class and the single-flight executor, so
// concurrent callers for the same resource share one upstream request.
type Service struct {
	cfg     *config.Config
	client  *Client
	session *SessionManager
	cache   *cache.Cache
	parser  *epg.Parser
	store   store.Store
	logger  zerolog.Logger
	now     func() time.Time
}

// NewService wires the client, session manager, cache, and guide parser into
// a single explicitly constructed service. Nothing here is a process-wide
// singleton; tests construct services around httptest servers.
func NewService(cfg *config.Config, st store.Store, logger zerolog.Logger, opts ...Option) (*Service, error) {
	client, err := NewClient(cfg.Xtream.BaseURL, cfg.Xtream.Username, cfg.Xtream.Password, logger, opts...)
	if err != nil {
		return nil, err
	}

	session := NewSessionManager(cfg.Session, client, logger)
	client.SetSession(session)

	return &Service{
		cfg:     cfg,
		client:  client,
		session: session,
		cache:   cache.New(cfg.Cache.SweepInterval, logger),
		parser:  epg.NewParser(logger),
		store:   st,
		logger:  logger,
		now:     time.Now,
	}, nil
}

// Start authenticates and launches the background tasks (cache sweep,
// heartbeat). A failed initial authentication is logged and left to the
// reconnect machinery; it does not prevent startup.
func (s *Service) Start(ctx context.Context) {
	s.cache.Start()

	if err := s.session.Initialize(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Initial authentication failed, heartbeat will keep retrying")
	}
	s.session.StartHeartbeat()
}

// Close stops the background tasks.
func (s *Service) Close() {
	s.session.Close()
	s.cache.Close()
}

// Session exposes the session manager for status reporting.
func (s *Service) Session() *SessionManager {
	return s.session
}

// fetchCached memoizes fn under key with the given TTL, deduplicating
// concurrent fetches per key.
func fetchCached[T any](ctx context.Context, s *Service, key string, ttl time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	value, err := s.cache.GetOrFetch(ctx, key, ttl, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return value.(T), nil
}

// LiveCategories returns the live-TV category listing.
func (s *Service) LiveCategories(ctx context.Context) ([]Category, error) {
	return s.categories(ctx, "get_live_categories")
}

// VODCategories returns the movie category listing.
func (s *Service) VODCategories(ctx context.Context) ([]Category, error) {
	return s.categories(ctx, "get_vod_categories")
}

// SeriesCategories returns the series category listing.
func (s *Service) SeriesCategories(ctx context.Context) ([]Category, error) {
	return s.categories(ctx, "get_series_categories")
}

func (s *Service) categories(ctx context.Context, action string) ([]Category, error) {
	return fetchCached(ctx, s, action, s.cfg.Cache.StreamsTTL, func(ctx context.Context) ([]Category, error) {
		body, err := s.client.playerAPI(ctx, action, nil)
		if err != nil {
			return nil, err
		}
		var categories []Category
		if err := json.Unmarshal(body, &categories); err != nil {
			return nil, fmt.Errorf("parse %s response: %w", action, err)
		}
		return categories, nil
	})
}

// LiveStreams returns the live channels, optionally restricted to a category.
func (s *Service) LiveStreams(ctx context.Context, categoryID string) ([]Stream, error) {
	key := "live_streams:" + orAll(categoryID)
	return fetchCached(ctx, s, key, s.cfg.Cache.StreamsTTL, func(ctx context.Context) ([]Stream, error) {
		body, err := s.client.playerAPI(ctx, "get_live_streams", categoryParams(categoryID))
		if err != nil {
			return nil, err
		}
		var streams []Stream
		if err := json.Unmarshal(body, &streams); err != nil {
			return nil, fmt.Errorf("parse live streams response: %w", err)
		}
		return streams, nil
	})
}

// VODStreams returns the movie listing, optionally restricted to a category.
func (s *Service) VODStreams(ctx context.Context, categoryID string) ([]VODStream, error) {
	key := "vod_streams:" + orAll(categoryID)
	return fetchCached(ctx, s, key, s.cfg.Cache.StreamsTTL, func(ctx context.Context) ([]VODStream, error) {
		body, err := s.client.playerAPI(ctx, "get_vod_streams", categoryParams(categoryID))
		if err != nil {
			return nil, err
		}
		var streams []VODStream
		if err := json.Unmarshal(body, &streams); err != nil {
			return nil, fmt.Errorf("parse vod streams response: %w", err)
		}
		return streams, nil
	})
}

// SeriesList returns the series listing, optionally restricted to a category.
func (s *Service) SeriesList(ctx context.Context, categoryID string) ([]Series, error) {
	key := "series:" + orAll(categoryID)
	return fetchCached(ctx, s, key, s.cfg.Cache.StreamsTTL, func(ctx context.Context) ([]Series, error) {
		body, err := s.client.playerAPI(ctx, "get_series", categoryParams(categoryID))
		if err != nil {
			return nil, err
		}
		var series []Series
		if err := json.Unmarshal(body, &series); err != nil {
			return nil, fmt.Errorf("parse series response: %w", err)
		}
		return series, nil
	})
}

// MovieInfo returns the detail record for a movie.
func (s *Service) MovieInfo(ctx context.Context, movieID int) (*MovieInfo, error) {
	key := fmt.Sprintf("movie:%d", movieID)
	return fetchCached(ctx, s, key, s.cfg.Cache.MovieTTL, func(ctx context.Context) (*MovieInfo, error) {
		params := url.Values{}
		params.Set("movie_id", strconv.Itoa(movieID))
		body, err := s.client.playerAPI(ctx, "get_movie_info", params)
		if err != nil {
			return nil, err
		}
		var info MovieInfo
		if err := json.Unmarshal(body, &info); err != nil {
			return nil, fmt.Errorf("parse movie info response: %w", err)
		}
		return &info, nil
	})
}

// ShortEPG returns the provider's own short EPG listing for a live stream.
func (s *Service) ShortEPG(ctx context.Context, streamID, limit int) ([]EPGListing, error) {
	key := fmt.Sprintf("short_epg:%d:%d", streamID, limit)
	return fetchCached(ctx, s, key, s.cfg.Cache.EPGTTL, func(ctx context.Context) ([]EPGListing, error) {
		params := url.Values{}
		params.Set("stream_id", strconv.Itoa(streamID))
		if limit > 0 {
			params.Set("limit", strconv.Itoa(limit))
		}
		body, err := s.client.playerAPI(ctx, "get_short_epg", params)
		if err != nil {
			return nil, err
		}
		var resp shortEPGResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("parse short epg response: %w", err)
		}
		return resp.EPGListings, nil
	})
}

// FullGuide fetches and parses the XMLTV guide, optionally restricted to the
// given channel ids. The parsed model is what gets cached; a cache refresh
// replaces it wholesale.
func (s *Service) FullGuide(ctx context.Context, channelIDs []string) (*epg.Guide, error) {
	key := "guide:" + orAll(strings.Join(channelIDs, ","))
	return fetchCached(ctx, s, key, s.cfg.Cache.GuideTTL, func(ctx context.Context) (*epg.Guide, error) {
		body, err := s.client.XMLTV(ctx, channelIDs)
		if err != nil {
			return nil, err
		}
		return s.parser.Parse(body, s.now())
	})
}

// CurrentAndNext returns the program airing now on the channel and its
// successor. A guide gap yields nil for both, not an error.
func (s *Service) CurrentAndNext(ctx context.Context, channelID string) (current, next *epg.Program, err error) {
	guide, err := s.FullGuide(ctx, []string{channelID})
	if err != nil {
		return nil, nil, err
	}
	current, next = epg.CurrentAndNext(guide, channelID, s.now())
	return current, next, nil
}

// Upcoming returns the channel's programs starting within the next hours.
func (s *Service) Upcoming(ctx context.Context, channelID string, hours int) ([]epg.Program, error) {
	guide, err := s.FullGuide(ctx, []string{channelID})
	if err != nil {
		return nil, err
	}
	return epg.Upcoming(guide, channelID, s.now(), time.Duration(hours)*time.Hour), nil
}

// PrefetchGuides warms the per-channel guide cache with bounded concurrency.
// Individual failures are logged and skipped so one dead channel does not
// spoil the batch.
func (s *Service) PrefetchGuides(ctx context.Context, channelIDs []string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(guidePrefetchLimit)

	for _, channelID := range channelIDs {
		channelID := channelID
		g.Go(func() error {
			if _, err := s.FullGuide(ctx, []string{channelID}); err != nil {
				s.logger.Warn().Err(err).Str("channel", channelID).Msg("Failed to prefetch guide")
			}
			return nil
		})
	}

	return g.Wait()
}

// LiveStreamURL builds the playback URL for a live channel.
func (s *Service) LiveStreamURL(streamID int) string {
	return fmt.Sprintf("%s/live/%s/%s/%d.ts", s.client.baseURL, s.client.username, s.client.password, streamID)
}

// MovieStreamURL builds the playback URL for a movie, using the container
// extension from its listing.
func (s *Service) MovieStreamURL(streamID int, containerExtension string) string {
	if containerExtension == "" {
		containerExtension = "mp4"
	}
	return fmt.Sprintf("%s/movie/%s/%s/%d.%s", s.client.baseURL, s.client.username, s.client.password, streamID, containerExtension)
}

// SeriesStreamURL builds the playback URL for a series episode stream.
func (s *Service) SeriesStreamURL(seriesID int) string {
	return fmt.Sprintf("%s/series/%s/%s/%d", s.client.baseURL, s.client.username, s.client.password, seriesID)
}

// AddFavorite marks an item as a favorite.
func (s *Service) AddFavorite(kind store.Kind, id string) error {
	return s.store.SaveFavorite(kind, id)
}

// RemoveFavorite unmarks a favorite.
func (s *Service) RemoveFavorite(kind store.Kind, id string) error {
	return s.store.RemoveFavorite(kind, id)
}

// Favorites lists the favorite ids for a kind.
func (s *Service) Favorites(kind store.Kind) ([]string, error) {
	return s.store.Favorites(kind)
}

// SaveProgress records a playback position.
func (s *Service) SaveProgress(kind store.Kind, id string, position, duration time.Duration) error {
	return s.store.SaveProgress(kind, id, position, duration)
}

// Progress returns the stored playback position for an item.
func (s *Service) Progress(kind store.Kind, id string) (time.Duration, error) {
	return s.store.Progress(kind, id)
}

// LastWatched returns the most recently watched ids for a kind.
func (s *Service) LastWatched(kind store.Kind) ([]string, error) {
	return s.store.LastWatched(kind)
}

func categoryParams(categoryID string) url.Values {
	if categoryID == "" {
		return nil
	}
	params := url.Values{}
	params.Set("category_id", categoryID)
	return params
}

func orAll(s string) string {
	if s == "" {
		return "all"
	}
	return s
}
