package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"net/http"
	"net/url"
	"path/filepath"
	"time"

	"shortsmith/models"
	"shortsmith/utils"
)

const (
	pexelsBaseURL     = "https://api.pexels.com"
	pexelsFallbackURL = "https://videos.pexels.com/video-files/856973/856973-hd_1080_1920_25fps.mp4"
	maxSearchRetries  = 3
)

// errNoResults means the search worked but matched nothing
var errNoResults = errors.New("no results")

// StockMediaService searches Pexels and downloads one visual per scene
type StockMediaService struct {
	keys        *utils.KeyPool
	httpClient  *http.Client
	baseURL     string
	fallbackURL string
	retryDelay  time.Duration
	backoff     time.Duration // grows linearly per attempt
}

// NewStockMediaService creates a new stock media service
func NewStockMediaService(keys *utils.KeyPool, retryDelay time.Duration) *StockMediaService {
	return &StockMediaService{
		keys: keys,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
		baseURL:     pexelsBaseURL,
		fallbackURL: pexelsFallbackURL,
		retryDelay:  retryDelay,
		backoff:     time.Second,
	}
}

// PexelsVideoResponse represents Pexels video search response
type PexelsVideoResponse struct {
	Videos []struct {
		ID         int `json:"id"`
		Duration   int `json:"duration"`
		VideoFiles []struct {
			ID       int    `json:"id"`
			Quality  string `json:"quality"` // hd, sd, uhd
			FileType string `json:"file_type"`
			Width    int    `json:"width"`
			Height   int    `json:"height"`
			Link     string `json:"link"`
		} `json:"video_files"`
	} `json:"videos"`
}

// PexelsPhotoResponse represents Pexels photo search response
type PexelsPhotoResponse struct {
	Photos []struct {
		ID  int `json:"id"`
		Src struct {
			Original string `json:"original"`
			Large2x  string `json:"large2x"`
		} `json:"src"`
	} `json:"photos"`
}

// FetchVisual downloads a clip for keyword, falling back to a photo and
// finally to a stock fallback clip. The returned visual is tagged with
// what was actually downloaded.
func (sm *StockMediaService) FetchVisual(ctx context.Context, keyword, orientation, destDir string, index int) (models.Visual, error) {
	base := filepath.Join(destDir, fmt.Sprintf("visual_%03d", index))

	videoURL, err := sm.searchVideo(ctx, keyword, orientation)
	if err == nil {
		path := base + ".mp4"
		if err := utils.DownloadFile(ctx, sm.httpClient, videoURL, path); err != nil {
			return models.Visual{}, fmt.Errorf("failed to download video: %w", err)
		}
		return models.VideoVisual(path), nil
	}
	log.Printf("[stock] no video for %q: %v, searching photos", keyword, err)

	photoURL, err := sm.searchPhoto(ctx, keyword, orientation)
	if err == nil {
		path := base + ".jpg"
		if err := utils.DownloadFile(ctx, sm.httpClient, photoURL, path); err != nil {
			return models.Visual{}, fmt.Errorf("failed to download photo: %w", err)
		}
		return models.ImageVisual(path), nil
	}
	log.Printf("[stock] no photo for %q: %v, using fallback clip", keyword, err)

	path := base + ".mp4"
	if err := utils.DownloadFile(ctx, sm.httpClient, sm.fallbackURL, path); err != nil {
		return models.Visual{}, fmt.Errorf("failed to download fallback video: %w", err)
	}
	return models.VideoVisual(path), nil
}

// searchVideo returns the highest resolution file of a random matching video
func (sm *StockMediaService) searchVideo(ctx context.Context, keyword, orientation string) (string, error) {
	var result PexelsVideoResponse
	if err := sm.search(ctx, "/videos/search", keyword, orientation, &result); err != nil {
		return "", err
	}

	candidates := result.Videos[:0]
	for _, v := range result.Videos {
		if len(v.VideoFiles) > 0 {
			candidates = append(candidates, v)
		}
	}
	if len(candidates) == 0 {
		return "", errNoResults
	}

	video := candidates[rand.IntN(len(candidates))]
	best := video.VideoFiles[0]
	for _, file := range video.VideoFiles[1:] {
		if file.Width*file.Height > best.Width*best.Height {
			best = file
		}
	}
	if best.Link == "" {
		return "", errNoResults
	}
	return best.Link, nil
}

// searchPhoto returns the original-size URL of a random matching photo
func (sm *StockMediaService) searchPhoto(ctx context.Context, keyword, orientation string) (string, error) {
	var result PexelsPhotoResponse
	if err := sm.search(ctx, "/v1/search", keyword, orientation, &result); err != nil {
		return "", err
	}
	if len(result.Photos) == 0 {
		return "", errNoResults
	}

	photo := result.Photos[rand.IntN(len(result.Photos))]
	if photo.Src.Original != "" {
		return photo.Src.Original, nil
	}
	if photo.Src.Large2x != "" {
		return photo.Src.Large2x, nil
	}
	return "", errNoResults
}

// search calls a Pexels search endpoint, rotating keys and retrying
func (sm *StockMediaService) search(ctx context.Context, endpoint, keyword, orientation string, out any) error {
	params := url.Values{}
	params.Add("query", keyword)
	params.Add("per_page", "5")
	params.Add("orientation", orientation)
	reqURL := sm.baseURL + endpoint + "?" + params.Encode()

	var lastErr error
	for attempt := 0; attempt < maxSearchRetries; attempt++ {
		apiKey, err := sm.keys.Next()
		if err != nil {
			return err
		}

		err = sm.doSearch(ctx, reqURL, apiKey, out)
		if err == nil {
			return nil
		}

		sm.keys.MarkFailed(apiKey, sm.retryDelay)
		lastErr = err
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * sm.backoff):
		}
	}

	return fmt.Errorf("failed after %d retries: %w", maxSearchRetries, lastErr)
}

func (sm *StockMediaService) doSearch(ctx context.Context, reqURL, apiKey string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", apiKey)

	resp, err := sm.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("pexels API returned status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
