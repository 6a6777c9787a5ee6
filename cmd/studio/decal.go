package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/leeforge/giftstudio/decal"
	apperrors "github.com/leeforge/giftstudio/errors"
	"github.com/leeforge/giftstudio/json"
	"github.com/leeforge/giftstudio/media/processor"
)

type decalResult struct {
	Mesh      decal.MeshInfo  `json:"mesh"`
	Placement decal.Placement `json:"placement"`
	Texture   string          `json:"texture,omitempty"`
}

func newDecalCmd() *cobra.Command {
	var (
		texture       string
		width, height int
	)
	cmd := &cobra.Command{
		Use:   "decal <mesh.obj> <image>",
		Short: "Place an image on a mug mesh as a decal",
		Long: `decal reads the vertices of a Wavefront OBJ mesh, sizes a decal for the
image on its front surface and prints the placement as JSON. With --texture the
decal is also flattened into the printable wrap texture.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, _, err := loadConfig(false)
			if err != nil {
				return err
			}
			p := processor.NewProcessor(sc.Output)
			res, err := runDecal(cmd.Context(), p, args[0], args[1], texture, width, height)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVarP(&texture, "texture", "t", "", "write the wrap texture to this file")
	cmd.Flags().IntVar(&width, "texture-width", 2048, "wrap texture width in pixels")
	cmd.Flags().IntVar(&height, "texture-height", 1024, "wrap texture height in pixels")
	return cmd
}

func runDecal(ctx context.Context, p *processor.Processor, meshPath, imagePath, texture string, w, h int) (*decalResult, error) {
	fh, err := os.Open(meshPath)
	if err != nil {
		return nil, apperrors.NewInvalid("mesh", meshPath, err.Error())
	}
	verts, err := decal.LoadOBJ(fh)
	fh.Close()
	if err != nil {
		return nil, err
	}
	if len(verts) == 0 {
		return nil, apperrors.NewInvalid("mesh", meshPath, "no vertices")
	}
	mesh := decal.MeshInfoFromBounds(decal.BoundsOf(verts))

	src, err := loadImage(ctx, p, imagePath)
	if err != nil {
		return nil, err
	}
	b := src.Image.Bounds()
	placement, err := decal.Place(mesh, b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}

	res := &decalResult{Mesh: mesh, Placement: placement}
	if texture == "" {
		return res, nil
	}
	tex, err := decal.PrintTexture(src.Image, mesh, placement, w, h)
	if err != nil {
		return nil, err
	}
	data, err := processor.EncodeBytes(tex, processor.FormatPNG, 0)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(texture, data, 0o644); err != nil {
		return nil, apperrors.WrapWithType(err, apperrors.ErrorTypeInternal, "write texture")
	}
	res.Texture = texture
	return res, nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
