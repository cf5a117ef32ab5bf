package physics

type tensor [2][2]float64

var identity = tensor{{1, 0}, {0, 1}}

func (A tensor) add(B tensor) (C tensor) {
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			C[i][j] = A[i][j] + B[i][j]
		}
	}
	return
}

func (A tensor) scale(a float64) (C tensor) {
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			C[i][j] = a * A[i][j]
		}
	}
	return
}

func (A tensor) transpose() tensor {
	return tensor{{A[0][0], A[1][0]}, {A[0][1], A[1][1]}}
}

func (A tensor) mul(B tensor) (C tensor) {
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			C[i][j] = A[i][0]*B[0][j] + A[i][1]*B[1][j]
		}
	}
	return
}

func (A tensor) vec(x [2]float64) [2]float64 {
	return [2]float64{A[0][0]*x[0] + A[0][1]*x[1], A[1][0]*x[0] + A[1][1]*x[1]}
}

func (A tensor) trace() float64 { return A[0][0] + A[1][1] }

// ddot is A:B
func (A tensor) ddot(B tensor) float64 {
	return A[0][0]*B[0][0] + A[0][1]*B[0][1] + A[1][0]*B[1][0] + A[1][1]*B[1][1]
}

func (A tensor) sym() tensor {
	return A.add(A.transpose()).scale(0.5)
}

func dot(a, b [2]float64) float64 { return a[0]*b[0] + a[1]*b[1] }

func sub(a, b [2]float64) [2]float64 { return [2]float64{a[0] - b[0], a[1] - b[1]} }

func add(a, b [2]float64) [2]float64 { return [2]float64{a[0] + b[0], a[1] + b[1]} }
