// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// XPostStatus is the lifecycle state of an announcement post.
type XPostStatus string

const (
	// XPostScheduled means the post is waiting for its scheduled time.
	XPostScheduled XPostStatus = "scheduled"
	// XPostClaimed means a scheduler worker has claimed the row and is
	// talking to the platform. Rows stuck in this state indicate a crash
	// mid-send.
	XPostClaimed XPostStatus = "claimed"
	// XPostSuccess means the announcement went out.
	XPostSuccess XPostStatus = "success"
	// XPostFailed means the platform rejected the post.
	XPostFailed XPostStatus = "failed"
	// XPostCancelled means the schedule was withdrawn before sending.
	XPostCancelled XPostStatus = "cancelled"
	// XPostUnknown means the send outcome could not be determined: the tweet
	// may have gone out but finalizing the row failed. Needs an operator.
	XPostUnknown XPostStatus = "unknown"
)

// XPost is one announcement attempt, immediate or scheduled. Text is frozen
// at creation so later edits to the show never change what goes out.
type XPost struct {
	ID            uuid.UUID   `json:"id"`
	LiveID        string      `json:"liveId"`
	Text          string      `json:"text"`
	FlyerURL      string      `json:"flyerUrl,omitempty"`
	Status        XPostStatus `json:"status"`
	TweetID       string      `json:"tweetId,omitempty"`
	TweetURL      string      `json:"tweetUrl,omitempty"`
	Error         string      `json:"error,omitempty"`
	MediaAttached bool        `json:"mediaAttached"`
	ScheduledAt   *time.Time  `json:"scheduledAt,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}
