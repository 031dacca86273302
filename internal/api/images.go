package api

import (
	"context"
	"fmt"
	"io"
)

// Image is an uploaded picture bound to a project, client or nomenklatura
// record. Processing (resize, thumbnails) happens server-side.
type Image struct {
	ID        int    `json:"id"`
	URL       string `json:"image"`
	Thumbnail string `json:"thumbnail,omitempty"`
	IsMain    bool   `json:"is_main"`
	Owner     int    `json:"owner,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

func (c *Client) uploadImage(ctx context.Context, path string, ownerField string, ownerID int, filename string, r io.Reader) (Image, error) {
	var img Image
	fields := map[string]string{ownerField: fmt.Sprint(ownerID)}
	files := []FilePart{{Field: "image", Filename: filename, Reader: r}}
	err := c.postMultipart(ctx, path, fields, files, &img)
	return img, err
}

func (c *Client) UploadProjectImage(ctx context.Context, projectID int, filename string, r io.Reader) (Image, error) {
	return c.uploadImage(ctx, "/project-image/", "project", projectID, filename, r)
}

func (c *Client) UploadClientImage(ctx context.Context, clientID int, filename string, r io.Reader) (Image, error) {
	return c.uploadImage(ctx, "/client-image/", "client", clientID, filename, r)
}

func (c *Client) UploadNomenklaturaImage(ctx context.Context, nomenklaturaID int, filename string, r io.Reader) (Image, error) {
	return c.uploadImage(ctx, "/nomenklatura-image/", "nomenklatura", nomenklaturaID, filename, r)
}

// BulkUploadResult summarizes a bulk image upload. Files are matched to
// nomenklatura records server-side by article in the filename.
type BulkUploadResult struct {
	Uploaded int      `json:"uploaded"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

func (c *Client) BulkUploadNomenklaturaImages(ctx context.Context, files []FilePart) (BulkUploadResult, error) {
	var res BulkUploadResult
	err := c.postMultipart(ctx, "/nomenklatura-image/bulk-upload/", nil, files, &res)
	return res, err
}

func (c *Client) DeleteImage(ctx context.Context, resource string, id int) error {
	return c.del(ctx, fmt.Sprintf("/%s-image/%d/", resource, id))
}
