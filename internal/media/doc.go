// Package media provides the image library behind the gallery service.
//
// A [Library] lists the albums (directories holding images) below the media
// root and keeps their listings cached until a filesystem watcher reports a
// change. A [Thumbnailer] serves size-suffixed thumbnails: the suffix of a
// requested name selects a bound from the suffix table and the original is
// fitted to that bound, with libvips when it is available and the imaging
// package otherwise. Generated thumbnails are cached on disk.
//
// [ThumbProber] and [VipsProber] plug the same files into the gallery's
// probe chain.
package media
