package deltatree

import (
	"fmt"
	"io"
)

// Writer is an interface for writing values. This can be used for supporting a custom serialization format.
type Writer interface {
	WriteUint8(v uint8) error
	WriteUint(v int) error
	WriteString(v string) error
	WriteValue(v interface{}) error
}

// Reader is an interface for reading values. This can be used for supporting a custom serialization format.
type Reader interface {
	ReadUint8() (uint8, error)
	ReadUint() (int, error)
	ReadString() (string, error)
	ReadValue() (interface{}, error)
}

// Note: This code is intentionally very verbose/repetitive in order to be forward compatible.

const (
	codeReplace uint8 = iota
	codeEditText
	codeAddKey
	codeRemoveKey
	codePatchKey
	codeInsert
	codeDelete
	codePatchIndex
)

const (
	codeEditKeep uint8 = iota
	codeEditDelete
	codeEditInsert
)

// ReadFrom reads a single operation.
func ReadFrom(r Reader) (Op, error) {
	code, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}

	switch code {
	case codeReplace:
		old, err := readNode(r)
		if err != nil {
			return nil, err
		}
		newValue, err := readNode(r)
		if err != nil {
			return nil, err
		}
		return OpReplace{Old: old, New: newValue}, nil
	case codeEditText:
		count, err := r.ReadUint()
		if err != nil {
			return nil, err
		}
		edits := make([]TextEdit, 0, count)
		for i := 0; i < count; i++ {
			kind, err := r.ReadUint8()
			if err != nil {
				return nil, err
			}
			text, err := r.ReadString()
			if err != nil {
				return nil, err
			}
			switch kind {
			case codeEditKeep:
				edits = append(edits, TextEdit{EditKeep, text})
			case codeEditDelete:
				edits = append(edits, TextEdit{EditDelete, text})
			case codeEditInsert:
				edits = append(edits, TextEdit{EditInsert, text})
			default:
				return nil, fmt.Errorf("unknown edit kind: %d", kind)
			}
		}
		return OpEditText{Edits: edits}, nil
	case codeAddKey:
		key, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		value, err := readNode(r)
		if err != nil {
			return nil, err
		}
		return OpAddKey{Key: key, Value: value}, nil
	case codeRemoveKey:
		key, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		return OpRemoveKey{Key: key}, nil
	case codePatchKey:
		key, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		sub, err := readPatch(r)
		if err != nil {
			return nil, err
		}
		return OpPatchKey{Key: key, Patch: sub}, nil
	case codeInsert:
		idx, err := r.ReadUint()
		if err != nil {
			return nil, err
		}
		value, err := readNode(r)
		if err != nil {
			return nil, err
		}
		return OpInsert{Index: idx, Value: value}, nil
	case codeDelete:
		idx, err := r.ReadUint()
		if err != nil {
			return nil, err
		}
		return OpDelete{Index: idx}, nil
	case codePatchIndex:
		idx, err := r.ReadUint()
		if err != nil {
			return nil, err
		}
		sub, err := readPatch(r)
		if err != nil {
			return nil, err
		}
		return OpPatchIndex{Index: idx, Patch: sub}, nil
	default:
		return nil, fmt.Errorf("unknown code: %d", code)
	}
}

func readNode(r Reader) (*Node, error) {
	value, err := r.ReadValue()
	if err != nil {
		return nil, err
	}
	return FromValue(value)
}

// readPatch reads a length-prefixed nested patch.
func readPatch(r Reader) (Patch, error) {
	count, err := r.ReadUint()
	if err != nil {
		return nil, err
	}
	patch := make(Patch, 0, count)
	for i := 0; i < count; i++ {
		op, err := ReadFrom(r)
		if err != nil {
			if err == io.EOF {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		patch = append(patch, op)
	}
	return patch, nil
}

// WriteTo writes a single operation to a writer.
func WriteTo(w Writer, op Op) error {
	switch op := op.(type) {
	case OpReplace:
		err := w.WriteUint8(codeReplace)
		if err != nil {
			return err
		}
		err = w.WriteValue(op.Old.Value())
		if err != nil {
			return err
		}
		return w.WriteValue(op.New.Value())
	case OpEditText:
		err := w.WriteUint8(codeEditText)
		if err != nil {
			return err
		}
		err = w.WriteUint(len(op.Edits))
		if err != nil {
			return err
		}
		for _, edit := range op.Edits {
			switch edit.Kind {
			case EditKeep:
				err = w.WriteUint8(codeEditKeep)
			case EditDelete:
				err = w.WriteUint8(codeEditDelete)
			case EditInsert:
				err = w.WriteUint8(codeEditInsert)
			default:
				panic("invalid edit kind")
			}
			if err != nil {
				return err
			}
			err = w.WriteString(edit.Text)
			if err != nil {
				return err
			}
		}
		return nil
	case OpAddKey:
		err := w.WriteUint8(codeAddKey)
		if err != nil {
			return err
		}
		err = w.WriteString(op.Key)
		if err != nil {
			return err
		}
		return w.WriteValue(op.Value.Value())
	case OpRemoveKey:
		err := w.WriteUint8(codeRemoveKey)
		if err != nil {
			return err
		}
		return w.WriteString(op.Key)
	case OpPatchKey:
		err := w.WriteUint8(codePatchKey)
		if err != nil {
			return err
		}
		err = w.WriteString(op.Key)
		if err != nil {
			return err
		}
		return writePatch(w, op.Patch)
	case OpInsert:
		err := w.WriteUint8(codeInsert)
		if err != nil {
			return err
		}
		err = w.WriteUint(op.Index)
		if err != nil {
			return err
		}
		return w.WriteValue(op.Value.Value())
	case OpDelete:
		err := w.WriteUint8(codeDelete)
		if err != nil {
			return err
		}
		return w.WriteUint(op.Index)
	case OpPatchIndex:
		err := w.WriteUint8(codePatchIndex)
		if err != nil {
			return err
		}
		err = w.WriteUint(op.Index)
		if err != nil {
			return err
		}
		return writePatch(w, op.Patch)
	}

	panic("unknown op")
}

func writePatch(w Writer, patch Patch) error {
	err := w.WriteUint(len(patch))
	if err != nil {
		return err
	}
	for _, op := range patch {
		err := WriteTo(w, op)
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteTo writes a patch to a writer.
func (patch Patch) WriteTo(w Writer) error {
	for _, op := range patch {
		err := WriteTo(w, op)
		if err != nil {
			return err
		}
	}

	return nil
}

// ReadFrom reads operations from a reader until it is exhausted.
func (patch *Patch) ReadFrom(r Reader) error {
	for {
		op, err := ReadFrom(r)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		*patch = append(*patch, op)
	}
}
