package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leeforge/giftstudio/editor"
	apperrors "github.com/leeforge/giftstudio/errors"
	"github.com/leeforge/giftstudio/geom"
	"github.com/leeforge/giftstudio/media/processor"
)

type composeFlags struct {
	base     string
	overlay  string
	out      string
	boundary string
	dx, dy   float64
	rotate   float64
	crop     string
}

func newComposeCmd() *cobra.Command {
	var f composeFlags
	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Flatten an overlay onto a product image",
		Long: `compose places --overlay on --base the way the editor does on upload,
applies the optional drag, rotation and crop, and writes the flattened bitmap.
The output format follows the extension of --out.`,
		Example: `  studio compose --base mug.png --overlay photo.jpg --out design.png --dx 20 --rotate 15
  studio compose --base tee.jpg --overlay logo.png --boundary 100,80,300,340 --out tee.webp`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, _, err := loadConfig(false)
			if err != nil {
				return err
			}
			opts := sc.Editor.Options()
			if f.boundary != "" {
				b, err := parseRect(f.boundary)
				if err != nil {
					return err
				}
				opts.Boundary = &b
			}
			p := processor.NewProcessor(sc.Output)
			state, err := runCompose(cmd.Context(), p, opts, f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (overlay at %.1f,%.1f scale %.3f rotation %.1f)\n",
				f.out, state.Placement.X, state.Placement.Y, state.Placement.ScaleX, state.Placement.Rotation)
			return nil
		},
	}
	cmd.Flags().StringVar(&f.base, "base", "", "product image")
	cmd.Flags().StringVar(&f.overlay, "overlay", "", "customer image")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "output file (.png, .jpg or .webp)")
	cmd.Flags().StringVar(&f.boundary, "boundary", "", "printable area as x,y,width,height")
	cmd.Flags().Float64Var(&f.dx, "dx", 0, "horizontal drag")
	cmd.Flags().Float64Var(&f.dy, "dy", 0, "vertical drag")
	cmd.Flags().Float64Var(&f.rotate, "rotate", 0, "rotation in degrees")
	cmd.Flags().StringVar(&f.crop, "crop", "", "crop the placed overlay to x,y,width,height on the canvas")
	_ = cmd.MarkFlagRequired("base")
	_ = cmd.MarkFlagRequired("overlay")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func runCompose(ctx context.Context, p *processor.Processor, opts editor.Options, f composeFlags) (editor.State, error) {
	it := editor.New(opts)

	base, err := loadImage(ctx, p, f.base)
	if err != nil {
		return editor.State{}, err
	}
	overlay, err := loadImage(ctx, p, f.overlay)
	if err != nil {
		return editor.State{}, err
	}
	if err := it.SetBase(base); err != nil {
		return editor.State{}, err
	}
	if err := it.Upload(overlay); err != nil {
		return editor.State{}, err
	}
	if f.dx != 0 || f.dy != 0 {
		if err := it.SetPlacement(geom.Point{X: f.dx, Y: f.dy}); err != nil {
			return editor.State{}, err
		}
	}
	if f.rotate != 0 {
		if err := it.SetRotation(f.rotate); err != nil {
			return editor.State{}, err
		}
	}
	if f.crop != "" {
		if err := applyCrop(it, f.crop); err != nil {
			return editor.State{}, err
		}
	}

	img, err := it.Compose()
	if err != nil {
		return editor.State{}, err
	}
	data, _, err := p.OutputAs(img, strings.TrimPrefix(filepath.Ext(f.out), "."))
	if err != nil {
		return editor.State{}, err
	}
	if err := os.WriteFile(f.out, data, 0o644); err != nil {
		return editor.State{}, apperrors.WrapWithType(err, apperrors.ErrorTypeInternal, "write output")
	}
	return it.State(), nil
}

// applyCrop drives the crop gesture from the top-left and bottom-right
// handles so the region ends up at rect.
func applyCrop(it *editor.Interaction, spec string) error {
	r, err := parseRect(spec)
	if err != nil {
		return err
	}
	if err := it.StartCrop(); err != nil {
		return err
	}
	if err := it.SetCropRegion(editor.HandleTopLeft, geom.Point{X: r.X, Y: r.Y}); err != nil {
		return err
	}
	if err := it.SetCropRegion(editor.HandleBottomRight, geom.Point{X: r.Right(), Y: r.Bottom()}); err != nil {
		return err
	}
	return it.ApplyCrop()
}

func loadImage(ctx context.Context, p *processor.Processor, path string) (*editor.Source, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewInvalid("file", path, err.Error())
	}
	defer fh.Close()
	img, err := p.LoadFromReader(ctx, fh)
	if err != nil {
		return nil, err
	}
	return &editor.Source{Image: img}, nil
}

func parseRect(s string) (geom.Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geom.Rect{}, apperrors.NewInvalid("rect", s, "expected x,y,width,height")
	}
	var v [4]float64
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return geom.Rect{}, apperrors.NewInvalid("rect", s, err.Error())
		}
		v[i] = f
	}
	if v[2] <= 0 || v[3] <= 0 {
		return geom.Rect{}, apperrors.NewInvalid("rect", s, "width and height must be positive")
	}
	return geom.Rect{X: v[0], Y: v[1], Width: v[2], Height: v[3]}, nil
}
