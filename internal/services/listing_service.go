// filepath: internal/services/listing_service.go
package services

import (
	"context"
	"math"
	"strings"

	"mediashelf/internal/config"
	"mediashelf/internal/logging"
	"mediashelf/internal/models"
	"mediashelf/internal/repository"
)

var _ ListingService = (*listingService)(nil)

// listingService answers "show me these items" requests.
type listingService struct {
	Repo     *repository.Repository
	PageSize int
}

// NewListingService creates a new ListingService.
func NewListingService(repo *repository.Repository, cfg *config.Config) *listingService {
	size := cfg.Library.PageSize
	if size <= 0 {
		size = config.Default().Library.PageSize
	}
	return &listingService{
		Repo:     repo,
		PageSize: size,
	}
}

// List produces one page of items. An item id drills into that item, tags
// filter by intersection, and without either the main grid is shown.
// Pages are 1-indexed; a page below 1 is treated as the first page.
func (s *listingService) List(ctx context.Context, req models.ListingRequest) (*models.Listing, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := s.PageSize
	offset := (page - 1) * limit

	listing := &models.Listing{Page: page, PageSize: limit}

	var (
		items []models.Item
		total int
		err   error
	)

	tags := make([]string, 0, len(req.Tags))
	for _, t := range req.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}

	switch {
	case req.ItemID != nil:
		listing.Mode = models.ListingModeItem
		items, total, err = s.listItem(ctx, *req.ItemID, limit, offset, listing)
	case len(tags) > 0:
		listing.Mode = models.ListingModeTags
		listing.RequestTags = tags
		items, total, err = s.Repo.FindByTagNames(ctx, tags, limit, offset)
	default:
		listing.Mode = models.ListingModeDefault
		items, total, err = s.Repo.ListTopLevel(ctx, true, limit, offset)
	}
	if err != nil {
		return nil, err
	}

	if items == nil {
		items = []models.Item{}
	}
	listing.Items = items
	listing.TotalItems = total
	listing.TotalPages = int(math.Ceil(float64(total) / float64(limit)))

	listing.Facets, err = s.facets(ctx, items)
	if err != nil {
		return nil, err
	}

	logging.Log.Debugf("List: mode=%s page=%d items=%d total=%d", listing.Mode, page, len(items), total)
	return listing, nil
}

// listItem fills the single item view: the children page of a folder, or the
// item itself otherwise.
func (s *listingService) listItem(ctx context.Context, id int64, limit, offset int, listing *models.Listing) ([]models.Item, int, error) {
	item, err := s.Repo.GetItem(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	listing.Item = item

	own, err := s.Repo.FindTagsByItems(ctx, []int64{id})
	if err != nil {
		return nil, 0, err
	}
	listing.ItemTags = make([]string, 0, len(own[id]))
	for _, t := range own[id] {
		listing.ItemTags = append(listing.ItemTags, t.Name)
		if t.Name == models.SeriesTag {
			listing.SeriesView = true
		}
	}

	if !item.IsFolder() {
		return []models.Item{*item}, 1, nil
	}
	return s.Repo.FindChildren(ctx, id, limit, offset)
}

// facets returns every tag linked to items with its global usage count.
func (s *listingService) facets(ctx context.Context, items []models.Item) (map[string]int, error) {
	facets := make(map[string]int)
	if len(items) == 0 {
		return facets, nil
	}

	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	byItem, err := s.Repo.FindTagsByItems(ctx, ids)
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]struct{})
	var tagIDs []int64
	for _, tags := range byItem {
		for _, t := range tags {
			if _, ok := seen[t.ID]; ok {
				continue
			}
			seen[t.ID] = struct{}{}
			tagIDs = append(tagIDs, t.ID)
		}
	}
	if len(tagIDs) == 0 {
		return facets, nil
	}

	counts, err := s.Repo.UsageCounts(ctx, tagIDs)
	if err != nil {
		return nil, err
	}
	for name, n := range counts {
		facets[name] = n
	}
	return facets, nil
}
