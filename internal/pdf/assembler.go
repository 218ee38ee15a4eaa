package pdf

import "fmt"

func assemble(pages []string, images [][]ExtractedImage) (*ExtractionResponse, error) {
	if len(pages) != len(images) {
		return nil, fmt.Errorf("%w: %d text pages, %d image pages", ErrMisaligned, len(pages), len(images))
	}

	if pages == nil {
		pages = []string{}
	}
	if images == nil {
		images = [][]ExtractedImage{}
	}
	for i := range images {
		if images[i] == nil {
			images[i] = []ExtractedImage{}
		}
	}

	return &ExtractionResponse{
		Pages:  pages,
		Images: images,
	}, nil
}
