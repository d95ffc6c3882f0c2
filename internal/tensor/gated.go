package tensor

import "fmt"

// GatedOutputShape returns the output shape of a gated activation for an
// input of shape (N, 2*D): the result is (N, D).
//
// The input must be 2-D with an even last dimension. An odd width is a
// contract violation and is reported rather than truncated. D = 0 is valid.
func GatedOutputShape(in Shape) (Shape, error) {
	if len(in) != 2 {
		return nil, fmt.Errorf("%w: gated activation expects 2-D input (N, 2*D), got %v", ErrShapeMismatch, in)
	}
	if in[1]%2 != 0 {
		return nil, fmt.Errorf("%w: gated activation expects an even last dimension, got %v", ErrShapeMismatch, in)
	}
	return Shape{in[0], in[1] / 2}, nil
}

// CheckGatedOperands validates an (out, x) pair for a gated activation.
//
// out must have shape (N, D) for x of shape (N, 2*D), the same dtype and
// device as x, and must not share memory with x. A nil x or out is a shape
// mismatch.
func CheckGatedOperands(out, x *RawTensor) error {
	if x == nil {
		return fmt.Errorf("%w: nil input tensor", ErrShapeMismatch)
	}
	want, err := GatedOutputShape(x.Shape())
	if err != nil {
		return err
	}
	if out == nil {
		return fmt.Errorf("%w: nil output tensor", ErrShapeMismatch)
	}
	if !out.Shape().Equal(want) {
		return fmt.Errorf("%w: output shape %v, want %v for input %v", ErrShapeMismatch, out.Shape(), want, x.Shape())
	}
	if out.DType() != x.DType() {
		return fmt.Errorf("%w: output dtype %s, input dtype %s", ErrDtypeMismatch, out.DType(), x.DType())
	}
	if out.Device() != x.Device() {
		return fmt.Errorf("%w: output device %s, input device %s", ErrDtypeMismatch, out.Device(), x.Device())
	}
	if out.SharesBuffer(x) {
		return ErrAliasedBuffers
	}
	return nil
}
