package decal

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	apperrors "github.com/leeforge/giftstudio/errors"
)

// LoadOBJ reads the vertex positions ("v x y z") of a Wavefront OBJ mesh.
// Every other statement is ignored.
func LoadOBJ(r io.Reader) ([]Vec3, error) {
	var verts []Vec3
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || fields[0] != "v" {
			continue
		}
		if len(fields) < 4 {
			return nil, apperrors.NewInvalid("obj", line, "vertex needs three coordinates")
		}
		var v Vec3
		for i := 0; i < 3; i++ {
			f, err := strconv.ParseFloat(fields[i+1], 64)
			if err != nil {
				return nil, apperrors.NewInvalid("obj", fields[i+1], fmt.Sprintf("line %d: bad coordinate", line)).
					WithInnerError(err)
			}
			v[i] = f
		}
		verts = append(verts, v)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read obj: %w", err)
	}
	if len(verts) == 0 {
		return nil, apperrors.NewInvalid("obj", 0, "mesh has no vertices")
	}
	return verts, nil
}
