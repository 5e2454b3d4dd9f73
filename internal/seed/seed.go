// Package seed embeds the bootstrap meeting catalog. The mirror substitutes
// it when the shared catalog reports empty, and cmd/seed loads it into a
// store file.
package seed

import (
	_ "embed"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/moimlab/moim/internal/membership/domain"
)

//go:embed catalog.toml
var catalogTOML []byte

// Catalog is the embedded bootstrap content: six meetings plus the interest
// and category vocabularies used by profile setup and catalog filtering.
type Catalog struct {
	Categories []string
	Interests  []string
	Meetings   []domain.Meeting
}

type catalogFile struct {
	Categories []string         `toml:"categories"`
	Interests  []string         `toml:"interests"`
	Meetings   []meetingFixture `toml:"meetings"`
}

type meetingFixture struct {
	ID                  string    `toml:"id"`
	Title               string    `toml:"title"`
	Category            string    `toml:"category"`
	ScheduledAt         time.Time `toml:"scheduled_at"`
	Location            string    `toml:"location"`
	Capacity            int       `toml:"capacity"`
	CurrentParticipants int       `toml:"current_participants"`
	Description         string    `toml:"description"`
	HostID              string    `toml:"host_id"`
	HostNickname        string    `toml:"host_nickname"`
	CertifiedOnly       bool      `toml:"certified_only"`
	MoodTags            []string  `toml:"mood_tags"`
	CreatedAt           time.Time `toml:"created_at"`
}

// Load decodes the embedded catalog.
func Load() (Catalog, error) {
	var file catalogFile
	if err := toml.Unmarshal(catalogTOML, &file); err != nil {
		return Catalog{}, fmt.Errorf("decode seed catalog: %w", err)
	}

	catalog := Catalog{
		Categories: file.Categories,
		Interests:  file.Interests,
		Meetings:   make([]domain.Meeting, 0, len(file.Meetings)),
	}
	for _, fixture := range file.Meetings {
		catalog.Meetings = append(catalog.Meetings, domain.Meeting{
			ID:                  fixture.ID,
			Title:               fixture.Title,
			Category:            fixture.Category,
			ScheduledAt:         fixture.ScheduledAt.UTC(),
			Location:            fixture.Location,
			Capacity:            fixture.Capacity,
			CurrentParticipants: fixture.CurrentParticipants,
			Description:         fixture.Description,
			HostID:              fixture.HostID,
			HostNickname:        fixture.HostNickname,
			CertifiedOnly:       fixture.CertifiedOnly,
			MoodTags:            fixture.MoodTags,
			CreatedAt:           fixture.CreatedAt.UTC(),
		})
	}
	return catalog, nil
}
