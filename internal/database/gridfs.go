package repository

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"RideDesk/entity"
	"RideDesk/internal/lib/sl"
)

// UploadDocument stores a document in GridFS under a folder-scoped name and
// returns its stable download path. The context deadline is applied as the
// bucket write deadline, so a slow media store aborts instead of hanging.
func (m *MongoDB) UploadDocument(ctx context.Context, folder, name string, data []byte, meta entity.FileMetadata) (string, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return "", err
	}
	defer m.disconnect(ctx, connection)

	bucket, err := gridfs.NewBucket(connection.Database(m.database))
	if err != nil {
		return "", fmt.Errorf("gridfs bucket: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := bucket.SetWriteDeadline(deadline); err != nil {
			return "", fmt.Errorf("gridfs deadline: %w", err)
		}
	}

	filename := folder + "/" + name
	uploadOpts := options.GridFSUpload().SetMetadata(meta)

	fileID, err := bucket.UploadFromStream(filename, bytes.NewReader(data), uploadOpts)
	if err != nil {
		return "", fmt.Errorf("%w: %v", entity.ErrUpload, err)
	}

	return "/api/v1/files/" + fileID.Hex(), nil
}

// gridfsReadCloser wraps a GridFS download stream and disconnects
// the MongoDB client when closed.
type gridfsReadCloser struct {
	stream     *gridfs.DownloadStream
	disconnect func()
}

func (r *gridfsReadCloser) Read(p []byte) (int, error) {
	return r.stream.Read(p)
}

func (r *gridfsReadCloser) Close() error {
	err := r.stream.Close()
	r.disconnect()
	return err
}

// DownloadDocument retrieves a stored document by its hex id.
// The caller must close the returned ReadCloser to release the connection.
func (m *MongoDB) DownloadDocument(ctx context.Context, fileID string) (string, entity.FileMetadata, io.ReadCloser, error) {
	oid, err := primitive.ObjectIDFromHex(fileID)
	if err != nil {
		return "", entity.FileMetadata{}, nil, fmt.Errorf("%w: bad file id", entity.ErrNotFound)
	}

	connection, err := m.connect(ctx)
	if err != nil {
		return "", entity.FileMetadata{}, nil, err
	}

	bucket, err := gridfs.NewBucket(connection.Database(m.database))
	if err != nil {
		m.disconnect(ctx, connection)
		return "", entity.FileMetadata{}, nil, fmt.Errorf("gridfs bucket: %w", err)
	}

	stream, err := bucket.OpenDownloadStream(oid)
	if err != nil {
		m.disconnect(ctx, connection)
		return "", entity.FileMetadata{}, nil, fmt.Errorf("gridfs open download: %w", err)
	}

	file := stream.GetFile()
	filename := file.Name

	var meta entity.FileMetadata
	if len(file.Metadata) > 0 {
		if err := bson.Unmarshal(file.Metadata, &meta); err != nil {
			m.log.Error("failed to unmarshal gridfs metadata", sl.Err(err))
		}
	}

	reader := &gridfsReadCloser{
		stream:     stream,
		disconnect: func() { m.disconnect(ctx, connection) },
	}

	return filename, meta, reader, nil
}
