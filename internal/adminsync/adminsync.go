// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package adminsync drives an admin editing session against the site
// document. A Controller holds a working copy of the document, tracks
// unsaved changes and in-flight image uploads, and pushes the full
// document back on save (last-write-wins; the persistence layer owns the
// document, the controller never assumes it is the sole writer).
//
// Two deployment modes share one controller: remote-backed sessions talk
// to the admin API through a Remote, local sessions read and write a JSON
// file and stage images in memory for a later export.
package adminsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"bandsite/internal/sitedata"
)

// Remote is the admin API surface a remote-backed session needs.
// *Client satisfies it.
type Remote interface {
	FetchDocument(ctx context.Context) (sitedata.Document, error)
	StoreDocument(ctx context.Context, doc sitedata.Document) error
	UploadImage(ctx context.Context, filename string, data []byte) (string, error)
	PostLive(ctx context.Context, liveID, tweetText string) error
}

var (
	// ErrSaveInProgress is returned when a save overlaps another save.
	ErrSaveInProgress = errors.New("a save is already in progress")
	// ErrUploadsActive is returned when a save would persist references
	// to images that have not finished landing in storage.
	ErrUploadsActive = errors.New("image uploads are still in progress")
	// ErrRemoteRequired marks operations that only exist against the API.
	ErrRemoteRequired = errors.New("operation requires the admin api")
)

// EditTarget records which item an editing session currently has open.
type EditTarget struct {
	Kind  Kind
	ID    string
	IsNew bool
}

// Controller is one admin editing session. Not safe to share between
// sessions; all methods on one Controller are safe to call concurrently.
type Controller struct {
	remote    Remote // nil in local-file mode
	localPath string
	logger    *slog.Logger
	now       func() time.Time

	mu      sync.Mutex
	doc     sitedata.Document
	dirty   bool
	saving  bool
	uploads int
	editing *EditTarget
	connErr error
	staged  map[string][]byte
}

// New creates a session controller. remote may be nil for a purely
// local-file deployment; localPath is the fallback (and local-mode)
// document file and may be empty when a remote is configured.
func New(remote Remote, localPath string, logger *slog.Logger) *Controller {
	return &Controller{
		remote:    remote,
		localPath: localPath,
		logger:    logger,
		now:       time.Now,
		staged:    make(map[string][]byte),
	}
}

// Load fetches the persisted document and makes it the working copy.
// When the remote is unreachable the session degrades to the local file
// instead of blocking, and the failure is kept visible via
// ConnectionError rather than only logged.
func (c *Controller) Load(ctx context.Context) error {
	var doc sitedata.Document
	var connErr error

	if c.remote != nil {
		fetched, err := c.remote.FetchDocument(ctx)
		if err == nil {
			doc = fetched
		} else {
			connErr = fmt.Errorf("load from api: %w", err)
			c.logger.Warn("document fetch failed, using local fallback", "error", err)
		}
	}
	if doc == nil {
		local, err := c.readLocal()
		if err != nil {
			if connErr != nil {
				return errors.Join(connErr, err)
			}
			return err
		}
		doc = local
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.doc = sitedata.Normalize(doc)
	c.dirty = false
	c.connErr = connErr
	return nil
}

func (c *Controller) readLocal() (sitedata.Document, error) {
	if c.localPath == "" {
		return sitedata.Defaults(), nil
	}
	raw, err := os.ReadFile(c.localPath)
	if err != nil {
		if os.IsNotExist(err) {
			return sitedata.Defaults(), nil
		}
		return nil, fmt.Errorf("read %s: %w", c.localPath, err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", c.localPath, err)
	}
	return doc, nil
}

// ConnectionError reports the remote failure recorded by the last Load,
// or nil. The admin surface shows it instead of silently degrading.
func (c *Controller) ConnectionError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connErr
}

// Document returns a copy of the working document.
func (c *Controller) Document() sitedata.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doc.Clone()
}

// Dirty reports whether the session holds unsaved changes.
func (c *Controller) Dirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty
}

// StartEdit opens an item for editing and records it as the active edit
// target. An empty id starts a new item with a generated id.
func (c *Controller) StartEdit(kind Kind, id string) EditTarget {
	c.mu.Lock()
	defer c.mu.Unlock()
	target := EditTarget{Kind: kind, ID: id}
	if id == "" {
		target.ID = NewItemID(kind, c.now())
		target.IsNew = true
	}
	c.editing = &target
	return target
}

// ActiveEdit returns the currently open edit target, or nil.
func (c *Controller) ActiveEdit() *EditTarget {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.editing == nil {
		return nil
	}
	target := *c.editing
	return &target
}

// CancelEdit closes the active edit target without applying anything.
func (c *Controller) CancelEdit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.editing = nil
}

// CommitEdit validates fields for the item kind and applies them to the
// working document: the item is removed from whichever category list it
// was in and inserted newest-first into the target category. A rejected
// edit leaves the document untouched. Returns the item id.
func (c *Controller) CommitEdit(kind Kind, id string, fields map[string]any) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id == "" {
		id = NewItemID(kind, c.now())
	}
	item, category, err := buildItem(kind, id, fields)
	if err != nil {
		return "", err
	}

	removeItem(c.doc, kind, id)
	insertItem(c.doc, kind, category, item)
	c.dirty = true
	if c.editing != nil && c.editing.Kind == kind && c.editing.ID == id {
		c.editing = nil
	}
	return id, nil
}

// DeleteItem removes an item from every category list of its kind.
func (c *Controller) DeleteItem(kind Kind, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if removeItem(c.doc, kind, id) {
		c.dirty = true
	}
}

// StageImage makes an image available as a document reference. Remote
// sessions upload immediately and reference the returned URL; the upload
// counts as active until it resolves, and Save refuses while any upload
// is active. Local sessions stage the bytes in memory under a generated
// assets path and hand them out later via ExportImages.
func (c *Controller) StageImage(ctx context.Context, filename string, data []byte) (string, error) {
	if c.remote == nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		name := stagedFilename(filename, c.now())
		c.staged[name] = data
		c.dirty = true
		return "assets/images/" + name, nil
	}

	c.mu.Lock()
	c.uploads++
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.uploads--
		c.mu.Unlock()
	}()

	url, err := c.remote.UploadImage(ctx, filename, data)
	if err != nil {
		return "", fmt.Errorf("image upload: %w", err)
	}
	return url, nil
}

// ExportImages returns the staged local-mode images and clears them.
// Keys are filenames under assets/images/.
func (c *Controller) ExportImages() map[string][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.staged
	c.staged = make(map[string][]byte)
	return out
}

// Save persists the full working document. It refuses while image
// uploads are active and while another save is running. On failure the
// session stays dirty so the state is not misreported as safe.
func (c *Controller) Save(ctx context.Context) error {
	c.mu.Lock()
	if c.saving {
		c.mu.Unlock()
		return ErrSaveInProgress
	}
	if c.uploads > 0 {
		c.mu.Unlock()
		return ErrUploadsActive
	}
	c.saving = true
	doc := c.doc.Clone()
	c.mu.Unlock()

	err := c.store(ctx, doc)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.saving = false
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	c.dirty = false
	return nil
}

func (c *Controller) store(ctx context.Context, doc sitedata.Document) error {
	if c.remote != nil {
		return c.remote.StoreDocument(ctx, doc)
	}
	if c.localPath == "" {
		return errors.New("no document file configured")
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.localPath, raw, 0o644)
}

// RequestPublish posts the announcement for an upcoming show. A dirty
// session is saved first, silently, because the media step of the post
// resolves the flyer from the persisted document, not the working copy.
func (c *Controller) RequestPublish(ctx context.Context, liveID, tweetText string) error {
	if c.remote == nil {
		return ErrRemoteRequired
	}

	c.mu.Lock()
	show, upcoming := sitedata.FindLive(c.doc, liveID)
	dirty := c.dirty
	c.mu.Unlock()

	if show == nil {
		return fmt.Errorf("live %q not found", liveID)
	}
	if !upcoming {
		return fmt.Errorf("live %q is already over", liveID)
	}

	if dirty {
		if err := c.Save(ctx); err != nil {
			return fmt.Errorf("save before publish: %w", err)
		}
	}
	return c.remote.PostLive(ctx, liveID, tweetText)
}
