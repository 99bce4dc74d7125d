// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package htmlgen turns an article's markup source into per-language HTML
// and points the HTML at the registered media.
//
// Rendering itself is delegated to a container image; this package only
// feeds it the markup and decodes what comes back.
package htmlgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pdiddy/asset-registrar/internal/container"
	"github.com/pdiddy/asset-registrar/pkg/types"
)

// Rendition is the HTML of one language. Err is set, and HTML empty, when
// that language failed to render.
type Rendition struct {
	Lang string
	HTML string
	Err  error
}

// Renderer produces one rendition per language found in the markup source.
// A non-nil error means nothing could be rendered at all.
type Renderer interface {
	Render(ctx context.Context, xmlPath, cssPath string) ([]Rendition, error)
}

// ContainerRenderer runs a renderer image that reads markup on stdin and
// writes {"renditions":[{"lang","html","error"}]} on stdout.
type ContainerRenderer struct {
	runtime container.Runtime
	image   string
}

// NewContainerRenderer verifies that image is available in rt.
func NewContainerRenderer(ctx context.Context, rt container.Runtime, image string) (*ContainerRenderer, error) {
	if err := rt.ImageExists(ctx, image); err != nil {
		return nil, fmt.Errorf("renderer image not available in %s: %w", rt.Name(), err)
	}
	return &ContainerRenderer{runtime: rt, image: image}, nil
}

type renderOutput struct {
	Renditions []struct {
		Lang  string `json:"lang"`
		HTML  string `json:"html"`
		Error string `json:"error"`
	} `json:"renditions"`
}

// Render pipes the markup at xmlPath through the renderer image. Results are
// sorted by language.
func (c *ContainerRenderer) Render(ctx context.Context, xmlPath, cssPath string) ([]Rendition, error) {
	f, err := os.Open(xmlPath)
	if err != nil {
		return nil, types.Wrap(types.ErrRender, "htmlgen", "render", "opening "+xmlPath, err)
	}
	defer f.Close()

	var args []string
	if cssPath != "" {
		args = append(args, "--css", cssPath)
	}

	var out bytes.Buffer
	if err := c.runtime.Run(ctx, c.image, args, f, &out); err != nil {
		return nil, types.Wrap(types.ErrRender, "htmlgen", "render", xmlPath, err)
	}
	return decodeRenditions(out.Bytes(), xmlPath)
}

func decodeRenditions(data []byte, xmlPath string) ([]Rendition, error) {
	var parsed renderOutput
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, types.Wrap(types.ErrRender, "htmlgen", "decode", xmlPath, err)
	}
	if len(parsed.Renditions) == 0 {
		return nil, types.Wrap(types.ErrRender, "htmlgen", "decode", xmlPath+": renderer produced no renditions", nil)
	}

	seen := map[string]bool{}
	renditions := make([]Rendition, 0, len(parsed.Renditions))
	for _, r := range parsed.Renditions {
		lang := strings.TrimSpace(r.Lang)
		if lang == "" || seen[lang] {
			continue
		}
		seen[lang] = true
		rd := Rendition{Lang: lang, HTML: r.HTML}
		switch {
		case r.Error != "":
			rd.HTML = ""
			rd.Err = types.Wrap(types.ErrRender, "htmlgen", "render",
				fmt.Sprintf("%s (%s)", xmlPath, lang), errors.New(r.Error))
		case strings.TrimSpace(r.HTML) == "":
			rd.Err = types.Wrap(types.ErrRender, "htmlgen", "render",
				fmt.Sprintf("%s (%s): empty html", xmlPath, lang), nil)
		}
		renditions = append(renditions, rd)
	}
	sort.Slice(renditions, func(i, j int) bool { return renditions[i].Lang < renditions[j].Lang })
	return renditions, nil
}
