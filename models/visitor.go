package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Device string

const (
	DeviceDesktop Device = "desktop"
	DeviceMobile  Device = "mobile"
	DeviceTablet  Device = "tablet"
	DeviceBot     Device = "bot"
)

type Visit struct {
	ID        bson.ObjectID  `bson:"_id,omitempty" json:"id"`
	SessionID string         `bson:"sessionId" json:"sessionId"`
	UserID    *bson.ObjectID `bson:"userId,omitempty" json:"userId,omitempty"`
	Path      string         `bson:"path" json:"path"`
	Referrer  string         `bson:"referrer,omitempty" json:"referrer,omitempty"`
	UserAgent string         `bson:"userAgent,omitempty" json:"userAgent,omitempty"`
	IP        string         `bson:"ip,omitempty" json:"ip,omitempty"`
	Device    Device         `bson:"device" json:"device"`
	CreatedAt time.Time      `bson:"createdAt" json:"createdAt"`
}

type DailyVisits struct {
	Day       string `bson:"_id" json:"day"`
	PageViews int64  `bson:"pageViews" json:"pageViews"`
	Uniques   int64  `bson:"uniques" json:"uniques"`
}

type PageCount struct {
	Path  string `bson:"_id" json:"path"`
	Count int64  `bson:"count" json:"count"`
}

type VisitorStats struct {
	From      time.Time     `json:"from"`
	To        time.Time     `json:"to"`
	PageViews int64         `json:"pageViews"`
	Uniques   int64         `json:"uniques"`
	Daily     []DailyVisits `json:"daily"`
	TopPages  []PageCount   `json:"topPages"`
	Devices   []PageCount   `json:"devices"`
	Realtime  *Realtime     `json:"realtime,omitempty"`
}

type Realtime struct {
	PageViewsToday int64       `json:"pageViewsToday"`
	UniquesToday   int64       `json:"uniquesToday"`
	ActiveNow      int64       `json:"activeNow"`
	TopPagesToday  []PageCount `json:"topPagesToday"`
}
