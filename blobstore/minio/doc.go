// Package minio provides a blobstore.RangeReader for MinIO and other
// S3-compatible storage.
//
// # Usage
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//
//	regions := blobstore.Regions{"local": bsminio.NewStore(client)}
package minio
