package services

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"math/rand"
	"net/url"
	"os"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	_ "golang.org/x/image/webp"

	"github.com/komodohub/komodo-hub-backend/internal/platform/dbctx"
	"github.com/komodohub/komodo-hub-backend/internal/platform/logger"
)

const (
	avatarSize      = 512
	uiAvatarsPrefix = "https://ui-avatars.com/api/?name="
)

type AvatarService interface {
	// DefaultAvatarURL returns a generated initials avatar in storage, or the
	// ui-avatars URL when storage is unavailable or the upload fails.
	DefaultAvatarURL(ctx context.Context, userID uuid.UUID, firstName, lastName string) string
	GenerateInitialsPNG(firstName, lastName string) (bytes.Buffer, error)
	UploadAvatarImage(ctx context.Context, userID uuid.UUID, raw []byte) (string, error)
}

type avatarService struct {
	log      *logger.Logger
	store    MediaStore
	bgColors []color.NRGBA
	fontFace font.Face
}

var defaultAvatarColors = []color.NRGBA{
	{R: 0x2E, G: 0x7D, B: 0x32, A: 0xFF},
	{R: 0x55, G: 0x8B, B: 0x2F, A: 0xFF},
	{R: 0x00, G: 0x69, B: 0x5C, A: 0xFF},
	{R: 0x6D, G: 0x4C, B: 0x41, A: 0xFF},
	{R: 0xEF, G: 0x6C, B: 0x00, A: 0xFF},
	{R: 0x02, G: 0x77, B: 0xBD, A: 0xFF},
	{R: 0x45, G: 0x5A, B: 0x64, A: 0xFF},
	{R: 0x9E, G: 0x9D, B: 0x24, A: 0xFF},
}

// NewAvatarService loads AVATAR_FONT and AVATAR_COLORS_JSON_PATH when set and
// falls back to the bundled Go Bold face and a built-in palette. store may be nil.
func NewAvatarService(log *logger.Logger, store MediaStore, fontPath, colorsPath string) (AvatarService, error) {
	serviceLog := log.With("service", "AvatarService")

	colors := defaultAvatarColors
	if strings.TrimSpace(colorsPath) != "" {
		loaded, err := loadColorsFromFile(colorsPath)
		if err != nil {
			return nil, fmt.Errorf("could not load avatar colors: %w", err)
		}
		if len(loaded) > 0 {
			colors = loaded
		}
	}

	fontBytes := gobold.TTF
	if strings.TrimSpace(fontPath) != "" {
		raw, err := os.ReadFile(fontPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read font file: %w", err)
		}
		fontBytes = raw
		serviceLog.Info("Loading avatar font", "font", fontPath)
	}
	face, err := loadFontFace(fontBytes, 206)
	if err != nil {
		return nil, fmt.Errorf("could not load avatar font: %w", err)
	}

	return &avatarService{
		log:      serviceLog,
		store:    store,
		bgColors: colors,
		fontFace: face,
	}, nil
}

func (as *avatarService) DefaultAvatarURL(ctx context.Context, userID uuid.UUID, firstName, lastName string) string {
	fallback := UIAvatarsURL(firstName, lastName)
	if as.store == nil || userID == uuid.Nil {
		return fallback
	}
	buf, err := as.GenerateInitialsPNG(firstName, lastName)
	if err != nil {
		as.log.Warn("initials avatar render failed; using fallback", "error", err)
		return fallback
	}
	key := avatarKey(userID)
	if err := as.store.UploadFile(dbctx.Context{Ctx: ctx}, key, "image/png", bytes.NewReader(buf.Bytes())); err != nil {
		as.log.Warn("initials avatar upload failed; using fallback", "error", err)
		return fallback
	}
	return as.store.GetPublicURL(key)
}

func (as *avatarService) GenerateInitialsPNG(firstName, lastName string) (bytes.Buffer, error) {
	dc := gg.NewContext(avatarSize, avatarSize)

	dc.DrawCircle(float64(avatarSize)/2, float64(avatarSize)/2, float64(avatarSize)/2)
	dc.Clip()

	dc.SetColor(pickAvatarColor(as.bgColors, firstName+" "+lastName))
	dc.DrawRectangle(0, 0, float64(avatarSize), float64(avatarSize))
	dc.Fill()

	initials := computeInitials(firstName, lastName)
	dc.SetFontFace(as.fontFace)
	dc.SetColor(color.White)
	dc.DrawStringAnchored(initials, float64(avatarSize)/2, float64(avatarSize)/2, 0.5, 0.35)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return buf, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf, nil
}

func (as *avatarService) UploadAvatarImage(ctx context.Context, userID uuid.UUID, raw []byte) (string, error) {
	if as.store == nil {
		return "", ErrStorageUnavailable
	}
	if userID == uuid.Nil {
		return "", fmt.Errorf("user required")
	}
	processed, err := processUploadedAvatar(raw, avatarSize)
	if err != nil {
		return "", err
	}
	key := avatarKey(userID)
	if err := as.store.UploadFile(dbctx.Context{Ctx: ctx}, key, "image/png", bytes.NewReader(processed.Bytes())); err != nil {
		return "", fmt.Errorf("failed to upload user avatar: %w", err)
	}
	return as.store.GetPublicURL(key), nil
}

// Versioned keys keep CDNs from serving a stale image after a change.
func avatarKey(userID uuid.UUID) string {
	return fmt.Sprintf("avatars/%s/%d.png", userID.String(), time.Now().UnixNano())
}

func UIAvatarsURL(firstName, lastName string) string {
	first := strings.TrimSpace(firstName)
	if first == "" {
		first = "U"
	}
	name := strings.TrimSpace(first + " " + strings.TrimSpace(lastName))
	return uiAvatarsPrefix + url.QueryEscape(name) + "&background=random"
}

func processUploadedAvatar(raw []byte, size int) (bytes.Buffer, error) {
	var out bytes.Buffer

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return out, fmt.Errorf("decode image: %w", err)
	}

	b := img.Bounds()
	side := min(b.Dx(), b.Dy())
	if side == 0 {
		return out, fmt.Errorf("decode image: empty")
	}
	x0 := b.Min.X + (b.Dx()-side)/2
	y0 := b.Min.Y + (b.Dy()-side)/2

	cropRect := image.Rect(0, 0, side, side)
	cropped := image.NewRGBA(cropRect)
	draw.Draw(cropped, cropRect, img, image.Point{X: x0, Y: y0}, draw.Src)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), cropped, cropped.Bounds(), draw.Over, nil)

	dc := gg.NewContext(size, size)
	dc.DrawCircle(float64(size)/2, float64(size)/2, float64(size)/2)
	dc.Clip()
	dc.DrawImage(dst, 0, 0)

	if err := dc.EncodePNG(&out); err != nil {
		return out, fmt.Errorf("encode png: %w", err)
	}
	return out, nil
}

// pickAvatarColor is stable per name so regenerated avatars keep their colour.
func pickAvatarColor(colors []color.NRGBA, seed string) color.NRGBA {
	if len(colors) == 0 {
		return color.NRGBA{R: 0x2E, G: 0x7D, B: 0x32, A: 0xFF}
	}
	seed = strings.TrimSpace(seed)
	if seed == "" {
		return colors[rand.Intn(len(colors))]
	}
	var h uint32 = 2166136261
	for i := 0; i < len(seed); i++ {
		h ^= uint32(seed[i])
		h *= 16777619
	}
	return colors[int(h%uint32(len(colors)))]
}

func computeInitials(first, last string) string {
	initial := func(s string) string {
		s = strings.TrimSpace(s)
		if s == "" {
			return ""
		}
		r, _ := utf8.DecodeRuneInString(s)
		return string(unicode.ToUpper(r))
	}
	out := initial(first) + initial(last)
	if out == "" {
		return "?"
	}
	return out
}

func loadColorsFromFile(jsonPath string) ([]color.NRGBA, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("read file error: %w", err)
	}
	var hexes []string
	if err := json.Unmarshal(data, &hexes); err != nil {
		return nil, fmt.Errorf("json unmarshal error: %w", err)
	}
	out := make([]color.NRGBA, 0, len(hexes))
	for _, h := range hexes {
		c, err := parseHexColor(h)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func parseHexColor(s string) (color.NRGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != 3 {
		return color.NRGBA{}, fmt.Errorf("invalid hex colour %q", s)
	}
	return color.NRGBA{R: raw[0], G: raw[1], B: raw[2], A: 0xFF}, nil
}

func loadFontFace(fontBytes []byte, size float64) (font.Face, error) {
	parsedFont, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	return truetype.NewFace(parsedFont, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	}), nil
}
