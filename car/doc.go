// Package car decodes the block sections of a CAR container.
//
// A container is a sequence of sections, each laid out as
//
//	varint(len(cid) + len(data)) | cid | data
//
// Reader is a cursor over any byte stream positioned somewhere inside a
// container. It never assumes that a requested offset lines up with a section
// boundary; callers read block data directly when they know its length and
// parse section headers to move on to the next block.
package car
