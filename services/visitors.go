package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Avhad-Enterprises/mmv-freelance-sub001/database"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/dto"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/models"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/utils"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.uber.org/zap"
)

const (
	activeWindow   = 5 * time.Minute
	dailyKeyTTL    = 48 * time.Hour
	maxStatsDays   = 366
	topPagesLimit  = 10
	dayLayout      = "2006-01-02"
	redisDayLayout = "20060102"
)

type VisitorService struct {
	visits *mongo.Collection
	rdb    *redis.Client
	logger *zap.Logger
	now    func() time.Time
}

func NewVisitorService(db *database.DB, rdb *redis.Client, logger *zap.Logger) *VisitorService {
	return &VisitorService{
		visits: db.Collection(database.VisitorsCollection),
		rdb:    rdb,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// DetectDevice classifies a user agent string.
func DetectDevice(ua string) models.Device {
	ua = strings.ToLower(ua)
	switch {
	case ua == "":
		return models.DeviceDesktop
	case strings.Contains(ua, "bot"), strings.Contains(ua, "crawler"), strings.Contains(ua, "spider"),
		strings.Contains(ua, "curl/"), strings.Contains(ua, "headless"):
		return models.DeviceBot
	case strings.Contains(ua, "ipad"), strings.Contains(ua, "tablet"),
		strings.Contains(ua, "android") && !strings.Contains(ua, "mobile"):
		return models.DeviceTablet
	case strings.Contains(ua, "mobi"), strings.Contains(ua, "iphone"), strings.Contains(ua, "android"):
		return models.DeviceMobile
	}
	return models.DeviceDesktop
}

// normalizePath keeps only the path of the tracked URL, without query or fragment.
func normalizePath(raw string) string {
	raw = strings.TrimSpace(raw)
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		raw = u.Path
	}
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	if len(raw) > 1 {
		raw = strings.TrimRight(raw, "/")
	}
	return raw
}

type VisitMeta struct {
	UserAgent string
	IP        string
	UserID    *bson.ObjectID
}

func (s *VisitorService) Track(ctx context.Context, in dto.TrackVisitDTO, meta VisitMeta) (*models.Visit, error) {
	v := models.Visit{
		SessionID: strings.TrimSpace(in.SessionID),
		UserID:    meta.UserID,
		Path:      normalizePath(in.Path),
		Referrer:  strings.TrimSpace(in.Referrer),
		UserAgent: meta.UserAgent,
		IP:        meta.IP,
		Device:    DetectDevice(meta.UserAgent),
		CreatedAt: s.now(),
	}
	if v.SessionID == "" {
		return nil, invalid("sessionId is required")
	}
	res, err := s.visits.InsertOne(ctx, v)
	if err != nil {
		return nil, err
	}
	v.ID = res.InsertedID.(bson.ObjectID)

	if v.Device != models.DeviceBot {
		s.count(ctx, v)
	}
	return &v, nil
}

func dayKeys(day time.Time) (pv, uv, pages string) {
	d := day.Format(redisDayLayout)
	return "visits:pv:" + d, "visits:uv:" + d, "visits:pages:" + d
}

const activeKey = "visits:active"

// count updates the realtime counters; failures only lose realtime precision.
func (s *VisitorService) count(ctx context.Context, v models.Visit) {
	if s.rdb == nil {
		return
	}
	pv, uv, pages := dayKeys(v.CreatedAt)
	pipe := s.rdb.Pipeline()
	pipe.Incr(ctx, pv)
	pipe.PFAdd(ctx, uv, v.SessionID)
	pipe.ZIncrBy(ctx, pages, 1, v.Path)
	pipe.Expire(ctx, pv, dailyKeyTTL)
	pipe.Expire(ctx, uv, dailyKeyTTL)
	pipe.Expire(ctx, pages, dailyKeyTTL)
	pipe.ZAdd(ctx, activeKey, redis.Z{Score: float64(v.CreatedAt.Unix()), Member: v.SessionID})
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Warn("realtime visit counters not updated", zap.Error(err))
	}
}

// Realtime reads today's counters; it returns nil when redis is not configured.
func (s *VisitorService) Realtime(ctx context.Context) (*models.Realtime, error) {
	if s.rdb == nil {
		return nil, nil
	}
	now := s.now()
	pv, uv, pages := dayKeys(now)
	cutoff := fmt.Sprintf("%d", now.Add(-activeWindow).Unix())

	pipe := s.rdb.Pipeline()
	pvCmd := pipe.Get(ctx, pv)
	uvCmd := pipe.PFCount(ctx, uv)
	pipe.ZRemRangeByScore(ctx, activeKey, "-inf", "("+cutoff)
	activeCmd := pipe.ZCard(ctx, activeKey)
	topCmd := pipe.ZRevRangeWithScores(ctx, pages, 0, topPagesLimit-1)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("read realtime counters: %w", err)
	}

	out := &models.Realtime{
		UniquesToday:  uvCmd.Val(),
		ActiveNow:     activeCmd.Val(),
		TopPagesToday: make([]models.PageCount, 0),
	}
	if n, err := pvCmd.Int64(); err == nil {
		out.PageViewsToday = n
	}
	for _, z := range topCmd.Val() {
		member, _ := z.Member.(string)
		out.TopPagesToday = append(out.TopPagesToday, models.PageCount{Path: member, Count: int64(z.Score)})
	}
	return out, nil
}

// ParseRange reads a [from, to] day range (YYYY-MM-DD, UTC); to is inclusive. The default is
// the last 30 days.
func ParseRange(from, to string, now time.Time) (time.Time, time.Time, error) {
	today := now.UTC().Truncate(24 * time.Hour)
	end := today.Add(24 * time.Hour)
	if to != "" {
		t, err := time.Parse(dayLayout, to)
		if err != nil {
			return time.Time{}, time.Time{}, invalid("to must be YYYY-MM-DD")
		}
		end = t.Add(24 * time.Hour)
	}
	start := end.AddDate(0, 0, -30)
	if from != "" {
		f, err := time.Parse(dayLayout, from)
		if err != nil {
			return time.Time{}, time.Time{}, invalid("from must be YYYY-MM-DD")
		}
		start = f
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, invalid("from must not be after to")
	}
	if end.Sub(start) > maxStatsDays*24*time.Hour {
		return time.Time{}, time.Time{}, invalid("range is limited to %d days", maxStatsDays)
	}
	return start, end, nil
}

type statsFacets struct {
	Totals []struct {
		PageViews int64 `bson:"pageViews"`
		Uniques   int64 `bson:"uniques"`
	} `bson:"totals"`
	Daily    []models.DailyVisits `bson:"daily"`
	TopPages []models.PageCount   `bson:"topPages"`
	Devices  []models.PageCount   `bson:"devices"`
}

func statsPipeline(start, end time.Time) mongo.Pipeline {
	countSessions := bson.D{
		{Key: "pageViews", Value: bson.D{{Key: "$sum", Value: 1}}},
		{Key: "sessions", Value: bson.D{{Key: "$addToSet", Value: "$sessionId"}}},
	}
	withUniques := bson.D{{Key: "$project", Value: bson.D{
		{Key: "pageViews", Value: 1},
		{Key: "uniques", Value: bson.D{{Key: "$size", Value: "$sessions"}}},
	}}}

	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"createdAt": bson.M{"$gte": start, "$lt": end},
			"device":    bson.M{"$ne": models.DeviceBot},
		}}},
		{{Key: "$facet", Value: bson.D{
			{Key: "totals", Value: bson.A{
				bson.D{{Key: "$group", Value: append(bson.D{{Key: "_id", Value: nil}}, countSessions...)}},
				withUniques,
			}},
			{Key: "daily", Value: bson.A{
				bson.D{{Key: "$group", Value: append(bson.D{{Key: "_id", Value: bson.D{
					{Key: "$dateToString", Value: bson.D{{Key: "format", Value: "%Y-%m-%d"}, {Key: "date", Value: "$createdAt"}}},
				}}}, countSessions...)}},
				withUniques,
				bson.D{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
			}},
			{Key: "topPages", Value: bson.A{
				bson.D{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$path"}, {Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}}}}},
				bson.D{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
				bson.D{{Key: "$limit", Value: topPagesLimit}},
			}},
			{Key: "devices", Value: bson.A{
				bson.D{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$device"}, {Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}}}}},
				bson.D{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
			}},
		}}},
	}
}

func (s *VisitorService) Stats(ctx context.Context, from, to string) (*models.VisitorStats, error) {
	start, end, err := ParseRange(from, to, s.now())
	if err != nil {
		return nil, err
	}
	cursor, err := s.visits.Aggregate(ctx, statsPipeline(start, end))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var facets []statsFacets
	if err := cursor.All(ctx, &facets); err != nil {
		return nil, err
	}

	out := &models.VisitorStats{
		From:     start,
		To:       end.Add(-time.Nanosecond),
		Daily:    make([]models.DailyVisits, 0),
		TopPages: make([]models.PageCount, 0),
		Devices:  make([]models.PageCount, 0),
	}
	if len(facets) > 0 {
		f := facets[0]
		if len(f.Totals) > 0 {
			out.PageViews, out.Uniques = f.Totals[0].PageViews, f.Totals[0].Uniques
		}
		if f.Daily != nil {
			out.Daily = f.Daily
		}
		if f.TopPages != nil {
			out.TopPages = f.TopPages
		}
		if f.Devices != nil {
			out.Devices = f.Devices
		}
	}

	rt, err := s.Realtime(ctx)
	if err != nil {
		s.logger.Warn("realtime counters unavailable", zap.Error(err))
	}
	out.Realtime = rt
	return out, nil
}

func (s *VisitorService) List(ctx context.Context, path, sessionID string, p utils.Pagination) ([]models.Visit, int64, error) {
	filter := bson.M{}
	if path != "" {
		filter["path"] = normalizePath(path)
	}
	if sessionID != "" {
		filter["sessionId"] = sessionID
	}
	return findPage[models.Visit](ctx, s.visits, filter, bson.D{{Key: "createdAt", Value: -1}}, p)
}

// VisitsToday prefers the realtime counter and falls back to the store.
func (s *VisitorService) VisitsToday(ctx context.Context) (int64, error) {
	if rt, err := s.Realtime(ctx); err == nil && rt != nil {
		return rt.PageViewsToday, nil
	}
	start := s.now().Truncate(24 * time.Hour)
	return s.visits.CountDocuments(ctx, bson.M{
		"createdAt": bson.M{"$gte": start},
		"device":    bson.M{"$ne": models.DeviceBot},
	})
}
