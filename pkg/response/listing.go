package response

import (
	"errors"
	"io"
	"strconv"

	"github.com/3leaps/bucketagent/pkg/provider"
)

// Element names from the ListObjects (v1) response schema.
const (
	listRootElement       = "ListBucketResult"
	listNameElement       = "Name"
	listEntryElement      = "Contents"
	listKeyElement        = "Key"
	listSizeElement       = "Size"
	listTruncatedElement  = "IsTruncated"
	listNextMarkerElement = "NextMarker"
	listCommonPrefixes    = "CommonPrefixes"
	listPrefixElement     = "Prefix"
)

// ParseListing parses a bucket listing document.
//
// bucket is recorded on every summary; the listing's own BucketName comes
// from the document's Name element.
func ParseListing(r io.Reader, bucket string) (*provider.ObjectListing, error) {
	root, err := ParseTree(r)
	if err != nil {
		return nil, &provider.ParseError{Op: OpList.String(), Field: "body", Err: err}
	}
	if root.Name != listRootElement {
		return nil, &provider.ParseError{
			Op:    OpList.String(),
			Field: "root element",
			Value: root.Name,
			Err:   errors.New("expected " + listRootElement),
		}
	}

	name, _ := root.ChildText(listNameElement)
	listing := &provider.ObjectListing{
		BucketName: name,
		Entries:    []provider.ObjectSummary{},
	}

	for _, entry := range root.Find(listEntryElement) {
		key, _ := entry.ChildText(listKeyElement)
		rawSize, _ := entry.ChildText(listSizeElement)
		size, err := strconv.ParseInt(rawSize, 10, 64)
		if err != nil {
			return nil, &provider.ParseError{Op: OpList.String(), Field: listSizeElement, Value: rawSize, Err: err}
		}
		if size < 0 {
			return nil, &provider.ParseError{Op: OpList.String(), Field: listSizeElement, Value: rawSize, Err: errors.New("negative size")}
		}
		listing.Entries = append(listing.Entries, provider.ObjectSummary{
			Bucket:    bucket,
			Key:       key,
			SizeBytes: size,
		})
	}

	if raw, ok := root.ChildText(listTruncatedElement); ok && raw != "" {
		truncated, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, &provider.ParseError{Op: OpList.String(), Field: listTruncatedElement, Value: raw, Err: err}
		}
		listing.IsTruncated = truncated
	}
	listing.NextMarker, _ = root.ChildText(listNextMarkerElement)

	for _, cp := range root.Find(listCommonPrefixes) {
		if prefix, ok := cp.ChildText(listPrefixElement); ok && prefix != "" {
			listing.CommonPrefixes = append(listing.CommonPrefixes, prefix)
		}
	}

	return listing, nil
}
