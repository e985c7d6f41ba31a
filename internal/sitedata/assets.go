// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package sitedata

import "strings"

// ResolveAssetPath maps a stored image reference to a fetchable URL for page
// rendering. Absolute URLs, root-relative paths, and already-relative paths
// are kept as-is; a bare reference like "assets/images/x.jpg" is prefixed
// with "../" except on the site root, which sits one level closer to the
// shared asset folder.
func ResolveAssetPath(ref string, isRootPage bool) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if isAbsoluteURL(ref) || strings.HasPrefix(ref, "/") {
		return ref
	}
	if strings.HasPrefix(ref, "./") || strings.HasPrefix(ref, "../") {
		return ref
	}
	if isRootPage {
		return ref
	}
	return "../" + ref
}

// ResolveImageSrc resolves ref and appends a cache-busting v=<version> query
// parameter, so an edited image is refetched without content-addressed names.
// The parameter is added only when both the resolved URL and version are
// non-empty.
func ResolveImageSrc(ref string, isRootPage bool, version string) string {
	resolved := ResolveAssetPath(ref, isRootPage)
	if resolved == "" || version == "" {
		return resolved
	}
	sep := "?"
	if strings.Contains(resolved, "?") {
		sep = "&"
	}
	return resolved + sep + "v=" + version
}

// ResolvePublicImageURL turns an image reference into an absolute URL,
// for contexts that leave the site entirely (Open Graph cards, flyer fetch
// for media upload). Relative references are joined onto origin, falling
// back to configuredOrigin when origin is empty. Returns "" when no origin
// is known.
func ResolvePublicImageURL(ref, origin, configuredOrigin string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if isAbsoluteURL(ref) {
		return ref
	}

	base := strings.TrimRight(strings.TrimSpace(origin), "/")
	if base == "" {
		base = strings.TrimRight(strings.TrimSpace(configuredOrigin), "/")
	}
	if base == "" {
		return ""
	}

	if strings.HasPrefix(ref, "/") {
		return base + ref
	}
	ref = strings.TrimPrefix(ref, "./")
	ref = strings.TrimPrefix(ref, "../")
	return base + "/" + ref
}

func isAbsoluteURL(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
