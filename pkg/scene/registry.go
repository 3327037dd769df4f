package scene

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/df07/go-sphere-tracer/pkg/geometry"
	"github.com/tidwall/gjson"
)

const builtInGroup = "Built-in Scenes"

// SceneInfo represents a discovered scene with its metadata
type SceneInfo struct {
	ID          string `json:"id"`          // Unique identifier
	Name        string `json:"name"`        // Scene name
	DisplayName string `json:"displayName"` // UI display name
	Description string `json:"description"` // Optional description
	Group       string `json:"group"`       // Grouping category
	Type        string `json:"type"`        // "builtin" or "json"
	FilePath    string `json:"filePath"`    // Path to JSON file (json type only)
	Variant     string `json:"variant"`     // Variant name (optional)
}

// SceneGroup represents a group of related scenes
type SceneGroup struct {
	Name   string      `json:"name"`
	Scenes []SceneInfo `json:"scenes"`
}

// ScenesResponse represents the complete response for /api/scenes
type ScenesResponse struct {
	Groups []SceneGroup `json:"groups"`
}

// BuiltInScenes lists the scenes compiled into the binary
func BuiltInScenes() []SceneInfo {
	return []SceneInfo{
		{
			ID:          "default",
			Name:        "Default Scene",
			DisplayName: "Default Scene",
			Description: "Diffuse sphere on a large ground sphere under a sky gradient",
			Group:       builtInGroup,
			Type:        "builtin",
		},
		{
			ID:          "materials",
			Name:        "Materials",
			DisplayName: "Materials",
			Description: "Hollow glass, diffuse and fuzzy metal spheres with depth of field",
			Group:       builtInGroup,
			Type:        "builtin",
		},
		{
			ID:          "random",
			Name:        "Random Spheres",
			DisplayName: "Random Spheres",
			Description: "Field of small random spheres around three large ones",
			Group:       builtInGroup,
			Type:        "builtin",
		},
		{
			ID:          "normals",
			Name:        "Surface Normals",
			DisplayName: "Surface Normals",
			Description: "Default scene shaded by surface normal",
			Group:       builtInGroup,
			Type:        "builtin",
		},
	}
}

// Create builds the scene registered under id. JSON scenes use the id "json:<file name>"
// and are looked up in the scenes directory. seed drives randomly generated layouts.
func Create(id string, seed int64, cameraOverrides ...geometry.CameraConfig) (*Scene, error) {
	switch id {
	case "default", "":
		return NewDefaultScene(cameraOverrides...), nil
	case "materials":
		return NewMaterialsScene(cameraOverrides...), nil
	case "random":
		return NewRandomScene(seed, cameraOverrides...), nil
	case "normals":
		return NewNormalsScene(cameraOverrides...), nil
	}

	if name, ok := strings.CutPrefix(id, "json:"); ok {
		scenes, err := ListJSONScenes()
		if err != nil {
			return nil, err
		}
		for _, info := range scenes {
			if info.ID == "json:"+name {
				return LoadJSONFile(info.FilePath, cameraOverrides...)
			}
		}
		return nil, fmt.Errorf("scene file %q not found", name)
	}

	return nil, fmt.Errorf("unknown scene %q", id)
}

// findScenesDir returns the first scenes directory that exists, or "" if none does
func findScenesDir() string {
	// Try different possible paths for scenes directory
	for _, path := range []string{"scenes", "../scenes"} {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			return path
		}
	}
	return ""
}

// ListJSONScenes scans the scenes directory and returns discovered JSON scenes
func ListJSONScenes() ([]SceneInfo, error) {
	scenesDir := findScenesDir()
	if scenesDir == "" {
		// No scenes directory found, return empty list
		return []SceneInfo{}, nil
	}
	return listJSONScenesIn(scenesDir)
}

func listJSONScenesIn(scenesDir string) ([]SceneInfo, error) {
	files, err := filepath.Glob(filepath.Join(scenesDir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan scenes directory: %w", err)
	}

	var scenes []SceneInfo
	for _, filePath := range files {
		sceneInfo, err := ParseJSONMetadata(filePath)
		if err != nil {
			// Skip unreadable files but keep the rest
			fmt.Printf("Warning: failed to parse metadata for %s: %v\n", filePath, err)
			continue
		}
		scenes = append(scenes, sceneInfo)
	}

	// Sort scenes by display name
	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].DisplayName < scenes[j].DisplayName
	})

	return scenes, nil
}

// ParseJSONMetadata reads the optional "name", "variant", "description" and "group"
// fields of a JSON scene, falling back to values derived from the file name
func ParseJSONMetadata(filePath string) (SceneInfo, error) {
	filename := filepath.Base(filePath)
	nameWithoutExt := strings.TrimSuffix(filename, filepath.Ext(filename))

	sceneInfo := SceneInfo{
		ID:          "json:" + nameWithoutExt,
		Name:        titleCase(nameWithoutExt),
		DisplayName: titleCase(nameWithoutExt),
		Group:       "Scene Files",
		Type:        "json",
		FilePath:    filePath,
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return sceneInfo, err
	}
	if !gjson.ValidBytes(data) {
		return sceneInfo, fmt.Errorf("invalid scene JSON")
	}

	meta := gjson.GetManyBytes(data, "name", "variant", "description", "group")
	if meta[0].String() != "" {
		sceneInfo.Name = meta[0].String()
	}
	sceneInfo.Variant = meta[1].String()
	sceneInfo.Description = meta[2].String()
	if meta[3].String() != "" {
		sceneInfo.Group = meta[3].String()
	}

	if sceneInfo.Variant != "" {
		sceneInfo.DisplayName = fmt.Sprintf("%s - %s", sceneInfo.Name, sceneInfo.Variant)
	} else {
		sceneInfo.DisplayName = sceneInfo.Name
	}

	return sceneInfo, nil
}

// ListAllScenes returns both built-in and JSON scenes, grouped by category
func ListAllScenes() (ScenesResponse, error) {
	var response ScenesResponse

	jsonScenes, err := ListJSONScenes()
	if err != nil {
		return response, fmt.Errorf("failed to list JSON scenes: %w", err)
	}

	return groupScenes(append(BuiltInScenes(), jsonScenes...)), nil
}

// groupScenes groups scenes by their Group field, built-in scenes first and the rest alphabetically
func groupScenes(allScenes []SceneInfo) ScenesResponse {
	var response ScenesResponse

	groupMap := make(map[string][]SceneInfo)
	for _, scene := range allScenes {
		groupMap[scene.Group] = append(groupMap[scene.Group], scene)
	}

	var groupNames []string
	for groupName := range groupMap {
		if groupName != builtInGroup {
			groupNames = append(groupNames, groupName)
		}
	}
	sort.Strings(groupNames)

	if builtIn, exists := groupMap[builtInGroup]; exists {
		response.Groups = append(response.Groups, SceneGroup{
			Name:   builtInGroup,
			Scenes: builtIn,
		})
	}

	for _, groupName := range groupNames {
		response.Groups = append(response.Groups, SceneGroup{
			Name:   groupName,
			Scenes: groupMap[groupName],
		})
	}

	return response
}

// titleCase converts a filename-style string to title case
// e.g., "glass-row" -> "Glass Row"
func titleCase(s string) string {
	// Replace hyphens and underscores with spaces
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	// Title case each word
	words := strings.Fields(s)
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
		}
	}

	return strings.Join(words, " ")
}
