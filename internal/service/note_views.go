package service

import (
	"context"
	"strings"
	"time"

	"notely-be/internal/dto"
	"notely-be/internal/entity"
	"notely-be/internal/repository/contract"
	"notely-be/internal/repository/specification"
	"notely-be/pkg/variant"

	"github.com/google/uuid"
)

func toSectionPayloads(sections []entity.NoteSection) []dto.NoteSectionPayload {
	out := make([]dto.NoteSectionPayload, len(sections))
	for i, s := range sections {
		bullets := s.Bullets
		if bullets == nil {
			bullets = []string{}
		}
		out[i] = dto.NoteSectionPayload{
			Title:     s.Title,
			Summary:   s.Summary,
			Bullets:   bullets,
			Language:  s.Language,
			Tone:      s.Tone,
			StartTime: s.StartTime,
			EndTime:   s.EndTime,
		}
	}
	return out
}

func fromSectionPayloads(noteId uuid.UUID, in []dto.NoteSectionPayload) []entity.NoteSection {
	out := make([]entity.NoteSection, len(in))
	for i, p := range in {
		lang := p.Language
		if lang == "" {
			lang = string(variant.English)
		}
		tone := p.Tone
		if lang != string(variant.Hinglish) {
			tone = ""
		}
		out[i] = entity.NoteSection{
			Id:        uuid.New(),
			NoteId:    noteId,
			Position:  i,
			Title:     strings.TrimSpace(p.Title),
			Summary:   p.Summary,
			Bullets:   append([]string{}, p.Bullets...),
			Language:  lang,
			Tone:      tone,
			StartTime: p.StartTime,
			EndTime:   p.EndTime,
		}
	}
	return out
}

func toTagResponses(tags []entity.Tag) []dto.TagResponse {
	out := make([]dto.TagResponse, len(tags))
	for i, t := range tags {
		out[i] = dto.TagResponse{Id: t.Id, Name: t.Name, Color: t.Color}
	}
	return out
}

func toNoteResponse(n *entity.Note) dto.NoteResponse {
	return dto.NoteResponse{
		Id:         n.Id,
		Title:      n.Title,
		Content:    n.Content,
		Summary:    n.Summary,
		SourceType: n.SourceType,
		VideoURL:   n.VideoURL,
		IsFavorite: n.IsFavorite,
		Version:    n.Version,
		Sections:   toSectionPayloads(n.Sections),
		Tags:       toTagResponses(n.Tags),
		CreatedAt:  n.CreatedAt,
		UpdatedAt:  n.UpdatedAt,
	}
}

func toNoteListItem(n *entity.Note) dto.NoteListItem {
	return dto.NoteListItem{
		Id:         n.Id,
		Title:      n.Title,
		Summary:    n.Summary,
		SourceType: n.SourceType,
		IsFavorite: n.IsFavorite,
		Version:    n.Version,
		Tags:       toTagResponses(n.Tags),
		UpdatedAt:  n.UpdatedAt,
	}
}

// cleanTagNames trims and de-duplicates case-insensitively, keeping the
// first spelling.
func cleanTagNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(n), "#"))
		key := strings.ToLower(n)
		if n == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out
}

// resolveTags maps names to the user's tag ids, creating missing tags.
func resolveTags(ctx context.Context, repo contract.TagRepository, userId uuid.UUID, names []string) ([]uuid.UUID, []entity.Tag, error) {
	names = cleanTagNames(names)
	if len(names) == 0 {
		return nil, nil, nil
	}

	existing, err := repo.FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.ByTagNames{Names: names},
	)
	if err != nil {
		return nil, nil, err
	}
	byName := make(map[string]*entity.Tag, len(existing))
	for _, t := range existing {
		byName[strings.ToLower(t.Name)] = t
	}

	ids := make([]uuid.UUID, 0, len(names))
	tags := make([]entity.Tag, 0, len(names))
	for _, name := range names {
		t, ok := byName[strings.ToLower(name)]
		if !ok {
			t = &entity.Tag{Id: uuid.New(), UserId: userId, Name: name, CreatedAt: time.Now()}
			if err := repo.Create(ctx, t); err != nil {
				return nil, nil, err
			}
		}
		ids = append(ids, t.Id)
		tags = append(tags, *t)
	}
	return ids, tags, nil
}
