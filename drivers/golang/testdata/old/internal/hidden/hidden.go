package hidden

func Invisible() {}
