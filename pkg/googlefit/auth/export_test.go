package auth

func (f *LoopbackFlow) SetStateGenerator(generator func() (string, error)) {
	f.randStateGenerator = generator
}
