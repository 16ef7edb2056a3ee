package nested

func Broken( {
