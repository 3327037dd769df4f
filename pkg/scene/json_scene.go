package scene

import (
	"fmt"
	"os"

	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/df07/go-sphere-tracer/pkg/geometry"
	"github.com/df07/go-sphere-tracer/pkg/material"
	"github.com/tidwall/gjson"
)

// LoadJSONFile reads and parses a JSON scene descriptor
func LoadJSONFile(path string, cameraOverrides ...geometry.CameraConfig) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene file: %w", err)
	}
	s, err := LoadJSON(data, cameraOverrides...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// LoadJSON builds a scene from a JSON descriptor of the form
//
//	{
//	  "camera":    {"look_from": [x,y,z], "look_at": [x,y,z], "up": [x,y,z], "vfov": 90,
//	                "aspect_ratio": 1.78, "aperture": 0, "focus_distance": 0},
//	  "render":    {"width": 400, "height": 225, "samples_per_pixel": 100, "max_depth": 50,
//	                "integrator": "path"},
//	  "materials": {"name": {"kind": "lambertian|metal|dielectric", "albedo": [r,g,b], "fuzz": 0, "ir": 1.5}},
//	  "spheres":   [{"center": [x,y,z], "radius": 0.5, "material": "name" or {...}}]
//	}
//
// Every section except "spheres" is optional. Materials declared by name are shared
// by every sphere that references them.
func LoadJSON(data []byte, cameraOverrides ...geometry.CameraConfig) (*Scene, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid scene JSON")
	}
	doc := gjson.ParseBytes(data)

	cameraConfig, err := parseCameraConfig(doc.Get("camera"))
	if err != nil {
		return nil, err
	}
	sampling, integratorName := parseRenderConfig(doc.Get("render"))

	// An explicit width and height define the aspect ratio unless the camera says otherwise
	if !doc.Get("camera.aspect_ratio").Exists() && sampling.Width > 0 && sampling.Height > 0 {
		cameraConfig.AspectRatio = float64(sampling.Width) / float64(sampling.Height)
	}

	s := newScene(cameraConfig, sampling, cameraOverrides)
	s.Integrator = integratorName

	named := make(map[string]material.Material)
	var materialErr error
	doc.Get("materials").ForEach(func(key, value gjson.Result) bool {
		mat, err := parseMaterial(value)
		if err != nil {
			materialErr = fmt.Errorf("material %q: %w", key.String(), err)
			return false
		}
		named[key.String()] = mat
		return true
	})
	if materialErr != nil {
		return nil, materialErr
	}

	spheres := doc.Get("spheres")
	if !spheres.IsArray() {
		return nil, fmt.Errorf("scene must contain a \"spheres\" array")
	}
	for i, entry := range spheres.Array() {
		sphere, err := parseSphere(entry, named)
		if err != nil {
			return nil, fmt.Errorf("sphere %d: %w", i, err)
		}
		s.World.Add(sphere)
	}

	return s, nil
}

func parseCameraConfig(camera gjson.Result) (geometry.CameraConfig, error) {
	config := geometry.DefaultCameraConfig()
	if !camera.Exists() {
		return config, nil
	}

	vectors := []struct {
		key    string
		target *core.Vec3
	}{
		{"look_from", &config.Center},
		{"look_at", &config.LookAt},
		{"up", &config.Up},
	}
	for _, v := range vectors {
		field := camera.Get(v.key)
		if !field.Exists() {
			continue
		}
		vec, err := parseVec3(field)
		if err != nil {
			return config, fmt.Errorf("camera %s: %w", v.key, err)
		}
		*v.target = vec
	}

	if field := camera.Get("vfov"); field.Exists() {
		config.VFov = field.Float()
	}
	if field := camera.Get("aspect_ratio"); field.Exists() {
		config.AspectRatio = field.Float()
	}
	config.Aperture = camera.Get("aperture").Float()
	config.FocusDistance = camera.Get("focus_distance").Float()

	if config.Center == config.LookAt {
		return config, fmt.Errorf("camera look_from and look_at must differ")
	}
	if config.VFov <= 0 || config.VFov >= 180 {
		return config, fmt.Errorf("camera vfov must be in (0, 180), got %g", config.VFov)
	}
	if config.AspectRatio <= 0 {
		return config, fmt.Errorf("camera aspect_ratio must be positive, got %g", config.AspectRatio)
	}

	return config, nil
}

func parseRenderConfig(render gjson.Result) (core.SamplingConfig, string) {
	sampling := core.DefaultSamplingConfig()
	sampling.Height = 0 // Derived from the aspect ratio unless given

	if field := render.Get("width"); field.Exists() {
		sampling.Width = int(field.Int())
	}
	if field := render.Get("height"); field.Exists() {
		sampling.Height = int(field.Int())
	}
	if field := render.Get("samples_per_pixel"); field.Exists() {
		sampling.SamplesPerPixel = int(field.Int())
	}
	if field := render.Get("max_depth"); field.Exists() {
		sampling.MaxDepth = int(field.Int())
	}
	return sampling, render.Get("integrator").String()
}

func parseSphere(entry gjson.Result, named map[string]material.Material) (*geometry.Sphere, error) {
	center, err := parseVec3(entry.Get("center"))
	if err != nil {
		return nil, fmt.Errorf("center: %w", err)
	}

	radius := entry.Get("radius")
	if radius.Type != gjson.Number {
		return nil, fmt.Errorf("radius must be a number")
	}

	matField := entry.Get("material")
	var mat material.Material
	switch {
	case matField.Type == gjson.String:
		var ok bool
		if mat, ok = named[matField.String()]; !ok {
			return nil, fmt.Errorf("unknown material %q", matField.String())
		}
	case matField.IsObject():
		if mat, err = parseMaterial(matField); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("material must be a name or an object")
	}

	return geometry.NewSphere(center, radius.Float(), mat), nil
}

func parseMaterial(value gjson.Result) (material.Material, error) {
	kind := value.Get("kind").String()
	switch kind {
	case "lambertian":
		albedo, err := parseVec3(value.Get("albedo"))
		if err != nil {
			return nil, fmt.Errorf("albedo: %w", err)
		}
		return material.NewLambertian(albedo), nil
	case "metal":
		albedo, err := parseVec3(value.Get("albedo"))
		if err != nil {
			return nil, fmt.Errorf("albedo: %w", err)
		}
		return material.NewMetal(albedo, value.Get("fuzz").Float()), nil
	case "dielectric":
		ir := value.Get("ir")
		if ir.Type != gjson.Number || ir.Float() <= 0 {
			return nil, fmt.Errorf("dielectric needs a positive \"ir\"")
		}
		return material.NewDielectric(ir.Float()), nil
	default:
		return nil, fmt.Errorf("unknown material kind %q", kind)
	}
}

func parseVec3(value gjson.Result) (core.Vec3, error) {
	if !value.IsArray() {
		return core.Vec3{}, fmt.Errorf("expected [x, y, z], got %q", value.Raw)
	}
	parts := value.Array()
	if len(parts) != 3 {
		return core.Vec3{}, fmt.Errorf("expected 3 components, got %d", len(parts))
	}
	for _, p := range parts {
		if p.Type != gjson.Number {
			return core.Vec3{}, fmt.Errorf("component %q is not a number", p.Raw)
		}
	}
	return core.NewVec3(parts[0].Float(), parts[1].Float(), parts[2].Float()), nil
}
