package dispatch

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifykit/pkg/segment"
)

type audienceKind int

const (
	audienceUsers audienceKind = iota
	audienceTopic
	audienceSegmentID
	audienceSegmentSlug
	audienceSegment
)

// Audience selects who a dispatch targets. Build one with the To*
// constructors.
type Audience struct {
	kind        audienceKind
	userIDs     []uuid.UUID
	topicSlug   string
	segmentID   uuid.UUID
	segmentSlug string
	segment     *segment.Segment
}

// ToUser targets a single user's registered addresses.
func ToUser(userID uuid.UUID) Audience {
	return Audience{kind: audienceUsers, userIDs: []uuid.UUID{userID}}
}

// ToUsers targets the registered addresses of a list of users.
func ToUsers(userIDs ...uuid.UUID) Audience {
	return Audience{kind: audienceUsers, userIDs: userIDs}
}

// ToTopic targets a provider topic; the provider fans out to subscribers.
func ToTopic(slug string) Audience {
	return Audience{kind: audienceTopic, topicSlug: slug}
}

// ToSegmentID targets the users matching a stored segment, by id.
func ToSegmentID(id uuid.UUID) Audience {
	return Audience{kind: audienceSegmentID, segmentID: id}
}

// ToSegmentSlug targets the users matching a stored segment, by its
// tenant-scoped slug.
func ToSegmentSlug(slug string) Audience {
	return Audience{kind: audienceSegmentSlug, segmentSlug: slug}
}

// ToSegment targets the users matching an already-resolved segment.
func ToSegment(seg *segment.Segment) Audience {
	return Audience{kind: audienceSegment, segment: seg}
}

// String returns a human-readable audience summary used by the delivery
// log.
func (a Audience) String() string {
	switch a.kind {
	case audienceUsers:
		if len(a.userIDs) == 1 {
			return "user:" + a.userIDs[0].String()
		}
		return fmt.Sprintf("users:%d", len(a.userIDs))
	case audienceTopic:
		return "topic:" + a.topicSlug
	case audienceSegmentID:
		return "segment:" + a.segmentID.String()
	case audienceSegmentSlug:
		return "segment:" + a.segmentSlug
	case audienceSegment:
		if a.segment != nil {
			return "segment:" + a.segment.Slug
		}
	}
	return "unknown"
}
