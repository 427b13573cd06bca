// Package importer loads the JSON content files shipped with the old site
// into the database. Existing posts and packages are left untouched.
package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"zozotech/internal/domain/models"
	"zozotech/internal/lib/logger/sl"
	"zozotech/internal/storage"
	"zozotech/internal/transport/http/dto"
)

const (
	PostsFile    = "posts.json"
	PackagesFile = "prices.json"
)

type PostCreator interface {
	CreatePost(ctx context.Context, req dto.PostRequest) (models.Post, error)
}

type PackageCreator interface {
	CreatePackage(ctx context.Context, req dto.PackageRequest) (models.PricedPackage, error)
}

type Result struct {
	PostsImported    int
	PostsSkipped     int
	PackagesImported int
	PackagesSkipped  int
}

type Importer struct {
	log      *slog.Logger
	posts    PostCreator
	packages PackageCreator
	now      func() time.Time
}

func New(log *slog.Logger, posts PostCreator, packages PackageCreator) *Importer {
	return &Importer{
		log:      log,
		posts:    posts,
		packages: packages,
		now:      time.Now,
	}
}

type postFile struct {
	Posts []postItem `json:"posts"`
}

type postItem struct {
	ID      any     `json:"id"`
	Slug    string  `json:"slug"`
	Title   string  `json:"title"`
	Date    string  `json:"date"`
	Excerpt *string `json:"excerpt"`
	Content *string `json:"content"`
	Icon    *string `json:"icon"`
}

type packageFile struct {
	Packages []packageItem `json:"packages"`
}

type packageItem struct {
	Name     string          `json:"name"`
	Price    json.Number     `json:"price"`
	Detail   *string         `json:"detail"`
	Icon     *string         `json:"icon"`
	Featured bool            `json:"featured"`
	Features dto.FeatureList `json:"features"`
}

// Run imports posts.json and prices.json from dir. A missing file is skipped.
func (i *Importer) Run(ctx context.Context, dir string) (Result, error) {
	const op = "importer.Run"

	var res Result

	if err := i.importPosts(ctx, filepath.Join(dir, PostsFile), &res); err != nil {
		return res, fmt.Errorf("%s: %w", op, err)
	}

	if err := i.importPackages(ctx, filepath.Join(dir, PackagesFile), &res); err != nil {
		return res, fmt.Errorf("%s: %w", op, err)
	}

	return res, nil
}

func readJSON(path string, v any) (bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}

	return true, nil
}

func (i *Importer) importPosts(ctx context.Context, path string, res *Result) error {
	log := i.log.With(slog.String("file", path))

	var file postFile
	found, err := readJSON(path, &file)
	if err != nil {
		return err
	}
	if !found {
		log.Info("posts file not found, skipping")
		return nil
	}

	published := true
	for _, item := range file.Posts {
		slug := strings.TrimSpace(item.Slug)
		if slug == "" && item.ID != nil {
			slug = strings.TrimSpace(fmt.Sprint(item.ID))
		}
		title := strings.TrimSpace(item.Title)
		if slug == "" || title == "" {
			res.PostsSkipped++
			continue
		}

		date := strings.TrimSpace(item.Date)
		if date == "" {
			date = i.now().Format(time.DateOnly)
		}

		_, err := i.posts.CreatePost(ctx, dto.PostRequest{
			Slug:      slug,
			Title:     title,
			Date:      date,
			Excerpt:   item.Excerpt,
			Content:   item.Content,
			Icon:      item.Icon,
			Published: &published,
		})
		if err != nil {
			if skippable(err) {
				log.Info("post skipped", slog.String("slug", slug), sl.Err(err))
				res.PostsSkipped++
				continue
			}
			return err
		}

		log.Info("post imported", slog.String("slug", slug))
		res.PostsImported++
	}

	return nil
}

func (i *Importer) importPackages(ctx context.Context, path string, res *Result) error {
	log := i.log.With(slog.String("file", path))

	var file packageFile
	found, err := readJSON(path, &file)
	if err != nil {
		return err
	}
	if !found {
		log.Info("prices file not found, skipping")
		return nil
	}

	for _, item := range file.Packages {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			res.PackagesSkipped++
			continue
		}

		price, err := item.Price.Int64()
		if err != nil {
			price = 0
		}

		_, err = i.packages.CreatePackage(ctx, dto.PackageRequest{
			Name:             name,
			PriceOriginalIDR: price,
			Detail:           item.Detail,
			Icon:             item.Icon,
			Featured:         item.Featured,
			Features:         item.Features,
		})
		if err != nil {
			if skippable(err) {
				log.Info("package skipped", slog.String("name", name), sl.Err(err))
				res.PackagesSkipped++
				continue
			}
			return err
		}

		log.Info("package imported", slog.String("name", name))
		res.PackagesImported++
	}

	return nil
}

func skippable(err error) bool {
	var verrs models.ValidationErrors

	return errors.Is(err, storage.ErrSlugTaken) ||
		errors.Is(err, storage.ErrPackageExists) ||
		errors.As(err, &verrs)
}
