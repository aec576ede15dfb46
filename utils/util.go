package utils

// Find 按ID顺序找出对应的数据
// 参数：dataMap-ID到数据的映射，ids-需要查找的ID序列
// 返回：按ids顺序排列的数据，以及不存在的ID列表
// 说明：ids中的重复ID会得到重复的数据，顺序即调用方给出的顺序
func Find[K comparable, T any](dataMap map[K]T, ids []K) (okData []T, failedIDs []K) {
	okData = make([]T, 0, len(ids))
	for _, id := range ids {
		if d, ok := dataMap[id]; ok {
			okData = append(okData, d)
		} else {
			failedIDs = append(failedIDs, id)
		}
	}
	return
}
